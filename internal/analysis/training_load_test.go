package analysis

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

func TestLoadModelConvergesOnConstantLoad(t *testing.T) {
	m := NewLoadModel(0, 0)
	for i := 0; i < 2000; i++ {
		m.Step(50)
	}

	state := m.State()
	assert.Equal(t, 50.0, state.CTL)
	assert.Equal(t, 50.0, state.ATL)
	assert.Equal(t, 0.0, state.TSB)
	require.NotNil(t, state.ACWR)
	assert.Equal(t, 1.0, *state.ACWR)
	assert.Equal(t, RiskOptimal, state.RiskZone)
}

func TestLoadModelStep(t *testing.T) {
	m := NewLoadModel(0, 0)
	m.Step(42)
	assert.InDelta(t, 1.0, m.CTL(), 1e-9)
	assert.InDelta(t, 6.0, m.ATL(), 1e-9)

	m.Step(0)
	assert.InDelta(t, 1.0-1.0/42, m.CTL(), 1e-9)
	assert.InDelta(t, 6.0-6.0/7, m.ATL(), 1e-9)
}

func TestLoadModelZeroCTL(t *testing.T) {
	state := NewLoadModel(0, 0).State()
	assert.Nil(t, state.ACWR)
	assert.Equal(t, RiskUnknown, state.RiskZone)
	assert.Equal(t, 0.0, state.TSB)
}

func TestReplayFillsGapsWithZero(t *testing.T) {
	loads := []DailyLoad{
		{Date: date("2024-03-01"), Load: 42},
		{Date: date("2024-03-03"), Load: 30},
		{Date: date("2024-03-03"), Load: 12},
	}

	got := NewLoadModel(0, 0)
	got.Replay(loads, date("2024-03-01"), date("2024-03-03"))

	want := NewLoadModel(0, 0)
	want.Step(42)
	want.Step(0)
	want.Step(42)

	assert.InDelta(t, want.CTL(), got.CTL(), 1e-9)
	assert.InDelta(t, want.ATL(), got.ATL(), 1e-9)
}

func TestReplayEmptyRange(t *testing.T) {
	m := NewLoadModel(10, 20)
	m.Replay(nil, date("2024-03-05"), date("2024-03-04"))
	assert.Equal(t, 10.0, m.CTL())
	assert.Equal(t, 20.0, m.ATL())
}

func TestCheckpointResumeMatchesFullReplay(t *testing.T) {
	start := date("2024-01-01")
	var loads []DailyLoad
	for i := 0; i < 100; i++ {
		if i%3 == 2 {
			continue
		}
		loads = append(loads, DailyLoad{Date: start.AddDate(0, 0, i), Load: float64(20 + i%11)})
	}
	end := start.AddDate(0, 0, 99)
	mid := start.AddDate(0, 0, 59)

	full := NewLoadModel(0, 0)
	full.Replay(loads, start, end)

	first := NewLoadModel(0, 0)
	first.Replay(loads, start, mid)
	cp := first.Checkpoint(uuid.New(), mid)
	assert.Equal(t, mid, cp.LastUpdate)

	resumed := FromCheckpoint(cp)
	resumed.Replay(loads, cp.LastUpdate.AddDate(0, 0, 1), end)

	assert.InDelta(t, full.CTL(), resumed.CTL(), 1e-9)
	assert.InDelta(t, full.ATL(), resumed.ATL(), 1e-9)
}

func TestClassifyACWR(t *testing.T) {
	tests := []struct {
		acwr float64
		want RiskZone
	}{
		{0.5, RiskUndertrained},
		{0.79, RiskUndertrained},
		{0.8, RiskOptimal},
		{1.0, RiskOptimal},
		{1.3, RiskOptimal},
		{1.31, RiskCaution},
		{1.5, RiskCaution},
		{1.51, RiskDanger},
		{2.4, RiskDanger},
	}

	for _, tt := range tests {
		if got := ClassifyACWR(tt.acwr); got != tt.want {
			t.Errorf("ClassifyACWR(%v) = %v, want %v", tt.acwr, got, tt.want)
		}
	}
}

func TestFormDescription(t *testing.T) {
	tests := []struct {
		tsb      float64
		expected string
	}{
		{30, "Very fresh (possibly detrained)"},
		{15, "Fresh and ready to perform"},
		{5, "Neutral - good for training"},
		{-5, "Slightly fatigued"},
		{-15, "Tired but building fitness"},
		{-30, "Very fatigued - rest needed"},
	}

	for _, tt := range tests {
		result := FormDescription(tt.tsb)
		if result != tt.expected {
			t.Errorf("FormDescription(%v) = %q, want %q", tt.tsb, result, tt.expected)
		}
	}
}

func TestDayLoad(t *testing.T) {
	reported := store.DailyMetrics{TrainingLoad: floatP(85), Steps: intP(16000)}
	assert.Equal(t, 85.0, DayLoad(reported))

	derived := store.DailyMetrics{Steps: intP(16000), EnergyDrained: floatP(96), IntensityMinutes: intP(100)}
	assert.Equal(t, 21.0, DayLoad(derived))

	assert.Equal(t, 0.0, DayLoad(store.DailyMetrics{}))
}

func TestDailyLoadsSortsAscending(t *testing.T) {
	days := series(date("2024-03-10"), 3, func(i int, d *store.DailyMetrics) {
		d.TrainingLoad = floatP(float64(i * 10))
	})

	loads := DailyLoads(days)
	require.Len(t, loads, 3)
	assert.Equal(t, date("2024-03-08"), loads[0].Date)
	assert.Equal(t, 20.0, loads[0].Load)
	assert.Equal(t, date("2024-03-10"), loads[2].Date)
	assert.Equal(t, 0.0, loads[2].Load)
}
