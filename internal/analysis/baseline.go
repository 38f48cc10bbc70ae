package analysis

import "github.com/RaulAdSe/garmin-trainer-sub003/internal/store"

const (
	// MinBaselineSamples is the fewest valid values an average needs
	MinBaselineSamples = 3

	ShortWindowDays = 7
	LongWindowDays  = 30
)

// Baseline holds the rolling averages for one metric
type Baseline struct {
	Avg7d  *float64 `json:"avg_7d"`
	Avg30d *float64 `json:"avg_30d"`
}

// BaselineSet maps each metric to its rolling averages
type BaselineSet map[Metric]Baseline

// Short returns the 7-day average for a metric
func (b BaselineSet) Short(m Metric) *float64 {
	return b[m].Avg7d
}

// Average returns the mean of the metric's non-nil values within the first
// window entries of days (newest first, scored day excluded), rounded to
// 2 decimals. Nil when fewer than MinBaselineSamples values exist
func Average(days []store.DailyMetrics, window int, metric Metric) *float64 {
	if window > len(days) {
		window = len(days)
	}

	var values []float64
	for _, d := range days[:window] {
		if v := metric.Value(d); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) < MinBaselineSamples {
		return nil
	}
	return floatPtr(round(mean(values), 2))
}

// ComputeBaselines builds 7- and 30-day averages for every metric
func ComputeBaselines(days []store.DailyMetrics) BaselineSet {
	set := make(BaselineSet, len(AllMetrics))
	for _, m := range AllMetrics {
		set[m] = Baseline{
			Avg7d:  Average(days, ShortWindowDays, m),
			Avg30d: Average(days, LongWindowDays, m),
		}
	}
	return set
}
