package analysis

import (
	"time"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

func floatP(v float64) *float64 { return &v }
func intP(v int) *int           { return &v }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// series builds newest-first records ending at end, one per day, applying
// fill to each with its index (0 = end).
func series(end time.Time, n int, fill func(i int, d *store.DailyMetrics)) []store.DailyMetrics {
	days := make([]store.DailyMetrics, n)
	for i := range days {
		days[i].Date = end.AddDate(0, 0, -i)
		if fill != nil {
			fill(i, &days[i])
		}
	}
	return days
}

func hrvDays(values ...float64) []store.DailyMetrics {
	days := make([]store.DailyMetrics, len(values))
	for i, v := range values {
		days[i].Date = date("2024-03-31").AddDate(0, 0, -i)
		days[i].HRV = floatP(v)
	}
	return days
}
