package analysis

import (
	"time"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

const (
	DefaultSleepTargetHours = 7.5
	DefaultSleepDebtWindow  = 7
)

// SleepDebtImpact bands accumulated sleep debt
type SleepDebtImpact string

const (
	SleepDebtMinimal     SleepDebtImpact = "minimal"
	SleepDebtModerate    SleepDebtImpact = "moderate"
	SleepDebtSignificant SleepDebtImpact = "significant"
	SleepDebtSevere      SleepDebtImpact = "severe"
)

// SleepDebtBands are the lower bounds, in hours, of each band above minimal
type SleepDebtBands struct {
	Moderate    float64
	Significant float64
	Severe      float64
}

// DefaultSleepDebtBands returns the stock cut points
func DefaultSleepDebtBands() SleepDebtBands {
	return SleepDebtBands{Moderate: 2, Significant: 5, Severe: 8}
}

// Classify bands a debt value
func (b SleepDebtBands) Classify(debt float64) SleepDebtImpact {
	switch {
	case debt >= b.Severe:
		return SleepDebtSevere
	case debt >= b.Significant:
		return SleepDebtSignificant
	case debt >= b.Moderate:
		return SleepDebtModerate
	default:
		return SleepDebtMinimal
	}
}

// SleepDebtResult is the rolling deficit against the sleep target
type SleepDebtResult struct {
	DebtHours    float64         `json:"debt_hours"`
	Impact       SleepDebtImpact `json:"impact"`
	TargetHours  float64         `json:"target_hours"`
	WindowDays   int             `json:"window_days"`
	DaysWithData int             `json:"days_with_data"`
}

// SleepDebt sums max(0, target - actual) over the values with data,
// rounded to 2 decimals
func SleepDebt(sleepHours []*float64, target float64) float64 {
	var debt float64
	for _, h := range sleepHours {
		if h == nil {
			continue
		}
		if deficit := target - *h; deficit > 0 {
			debt += deficit
		}
	}
	return round(debt, 2)
}

// AccumulateSleepDebt computes the debt over the window calendar days
// ending at asOf. days must be newest first
func AccumulateSleepDebt(days []store.DailyMetrics, asOf time.Time, window int, target float64, bands SleepDebtBands) SleepDebtResult {
	if window <= 0 {
		window = DefaultSleepDebtWindow
	}
	if target <= 0 {
		target = DefaultSleepTargetHours
	}

	asOf = Day(asOf)
	cutoff := asOf.AddDate(0, 0, -window)

	var hours []*float64
	withData := 0
	for _, d := range days {
		if d.Date.After(asOf) {
			continue
		}
		if !d.Date.After(cutoff) {
			break
		}
		if d.SleepHours != nil {
			withData++
		}
		hours = append(hours, d.SleepHours)
	}

	debt := SleepDebt(hours, target)
	return SleepDebtResult{
		DebtHours:    debt,
		Impact:       bands.Classify(debt),
		TargetHours:  target,
		WindowDays:   window,
		DaysWithData: withData,
	}
}
