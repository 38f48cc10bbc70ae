package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

// Metric names a per-day telemetry field
type Metric string

const (
	MetricHRV              Metric = "hrv"
	MetricSleep            Metric = "sleep"
	MetricEnergyCharged    Metric = "energy_charged"
	MetricEnergyDrained    Metric = "energy_drained"
	MetricRestingHR        Metric = "resting_hr"
	MetricSteps            Metric = "steps"
	MetricIntensityMinutes Metric = "intensity_minutes"
)

// AllMetrics lists every metric in display order
var AllMetrics = []Metric{
	MetricHRV,
	MetricSleep,
	MetricEnergyCharged,
	MetricEnergyDrained,
	MetricRestingHR,
	MetricSteps,
	MetricIntensityMinutes,
}

// Accessor extracts an optional value from a day
type Accessor func(d store.DailyMetrics) *float64

// Value returns the metric's value for a day, or nil when not reported
func (m Metric) Value(d store.DailyMetrics) *float64 {
	switch m {
	case MetricHRV:
		return d.HRV
	case MetricSleep:
		return d.SleepHours
	case MetricEnergyCharged:
		return d.EnergyCharged
	case MetricEnergyDrained:
		return d.EnergyDrained
	case MetricRestingHR:
		return d.RestingHR
	case MetricSteps:
		return intToFloat(d.Steps)
	case MetricIntensityMinutes:
		return intToFloat(d.IntensityMinutes)
	}
	return nil
}

// Inverse reports whether a lower value is an improvement
func (m Metric) Inverse() bool {
	return m == MetricRestingHR
}

// Label is the human-readable metric name
func (m Metric) Label() string {
	switch m {
	case MetricHRV:
		return "HRV"
	case MetricSleep:
		return "sleep"
	case MetricEnergyCharged:
		return "energy recharge"
	case MetricEnergyDrained:
		return "energy drain"
	case MetricRestingHR:
		return "resting heart rate"
	case MetricSteps:
		return "steps"
	case MetricIntensityMinutes:
		return "intensity minutes"
	}
	return string(m)
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// Day truncates t to its calendar date at UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a day as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NewestFirst returns a copy of days sorted newest first with dates
// normalized. Later duplicates of a date are dropped
func NewestFirst(days []store.DailyMetrics) []store.DailyMetrics {
	out := make([]store.DailyMetrics, 0, len(days))
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		d.Date = Day(d.Date)
		key := DateKey(d.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Before returns the newest-first suffix of days strictly older than date
func Before(days []store.DailyMetrics, date time.Time) []store.DailyMetrics {
	i := sort.Search(len(days), func(i int) bool {
		return days[i].Date.Before(date)
	})
	return days[i:]
}

// Find returns the record for date, if present
func Find(days []store.DailyMetrics, date time.Time) *store.DailyMetrics {
	i := sort.Search(len(days), func(i int) bool {
		return !days[i].Date.After(date)
	})
	if i < len(days) && days[i].Date.Equal(date) {
		return &days[i]
	}
	return nil
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundInt(v float64) int {
	return int(decimal.NewFromFloat(v).Round(0).IntPart())
}

func floatPtr(v float64) *float64 {
	return &v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
