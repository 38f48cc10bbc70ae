package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(met ...*bool) []DayFlag {
	out := make([]DayFlag, len(met))
	for i, m := range met {
		out[i] = DayFlag{Date: date("2024-03-31").AddDate(0, 0, -i), Met: m}
	}
	return out
}

func TestTrackStreak(t *testing.T) {
	yes, no := boolPtr(true), boolPtr(false)

	tests := []struct {
		name    string
		flags   []DayFlag
		current int
		best    int
		active  bool
		last    string
	}{
		{"current shorter than best", flags(yes, yes, no, yes, yes, yes), 2, 3, true, "2024-03-31"},
		{"missing data breaks the run", flags(yes, nil, yes, yes), 1, 2, true, "2024-03-31"},
		{"broken today", flags(no, yes, yes), 0, 2, false, "2024-03-30"},
		{"never met", flags(no, no, nil), 0, 0, false, ""},
		{"empty", nil, 0, 0, false, ""},
		{"unbroken", flags(yes, yes, yes, yes), 4, 4, true, "2024-03-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrackStreak("test", tt.flags)
			assert.Equal(t, "test", got.Name)
			assert.Equal(t, tt.current, got.CurrentCount)
			assert.Equal(t, tt.best, got.BestCount)
			assert.Equal(t, tt.active, got.IsActive)
			if tt.last == "" {
				assert.Nil(t, got.LastDate)
				return
			}
			require.NotNil(t, got.LastDate)
			assert.Equal(t, date(tt.last), *got.LastDate)
		})
	}
}
