package analysis

import "math"

// Direction is the classified movement of a value against its reference
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

const (
	// DailyDirectionThresholdPct applies to today vs the 7-day baseline
	DailyDirectionThresholdPct = 5.0
	// WeeklyDirectionThresholdPct applies to week-over-week averages
	WeeklyDirectionThresholdPct = 2.0
)

// DirectionResult describes how current compares to baseline
type DirectionResult struct {
	Direction Direction `json:"direction"`
	ChangePct float64   `json:"change_pct"`
	Baseline  float64   `json:"baseline"`
	Current   float64   `json:"current"`
}

// Classify compares current against baseline. A change whose magnitude is
// below thresholdPct is stable; at or above it the sign decides, flipped
// when inverse is set. Returns nil when either value is missing or the
// baseline is zero
func Classify(current, baseline *float64, thresholdPct float64, inverse bool) *DirectionResult {
	if current == nil || baseline == nil || *baseline == 0 {
		return nil
	}

	change := (*current - *baseline) * 100 / *baseline

	dir := DirectionStable
	if math.Abs(change) >= thresholdPct {
		up := change > 0
		if inverse {
			up = !up
		}
		if up {
			dir = DirectionUp
		} else {
			dir = DirectionDown
		}
	}

	return &DirectionResult{
		Direction: dir,
		ChangePct: round(change, 1),
		Baseline:  *baseline,
		Current:   *current,
	}
}

// ClassifyMetric compares a metric against its reference using the metric's
// own orientation
func ClassifyMetric(m Metric, current, baseline *float64, thresholdPct float64) *DirectionResult {
	return Classify(current, baseline, thresholdPct, m.Inverse())
}
