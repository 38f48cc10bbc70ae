package analysis

// TrendDirection is the direction of a sustained multi-day move
type TrendDirection string

const (
	TrendDeclining TrendDirection = "declining"
	TrendImproving TrendDirection = "improving"
)

// Severity grades a trend alert
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityConcern  Severity = "concern"
	SeverityPositive Severity = "positive"
)

// TrendAlert flags a sustained decline or improvement in a metric
type TrendAlert struct {
	Metric    Metric         `json:"metric"`
	Direction TrendDirection `json:"direction"`
	Days      int            `json:"days"`
	ChangePct float64        `json:"change_pct"`
	Severity  Severity       `json:"severity"`
}

// TrendRule configures the detector for one metric
type TrendRule struct {
	Metric     Metric
	Days       int     // window length
	MinMoves   int     // directional day-over-day moves required
	ChangePct  float64 // net change required, as a magnitude
	ConcernPct float64 // decline magnitude escalating to concern
}

// DefaultTrendRules returns the stock rule set
func DefaultTrendRules() []TrendRule {
	return []TrendRule{
		{Metric: MetricHRV, Days: 7, MinMoves: 3, ChangePct: 10, ConcernPct: 15},
		{Metric: MetricSleep, Days: 7, MinMoves: 3, ChangePct: 10, ConcernPct: 20},
		{Metric: MetricEnergyCharged, Days: 7, MinMoves: 3, ChangePct: 10, ConcernPct: 20},
		{Metric: MetricRestingHR, Days: 7, MinMoves: 3, ChangePct: 10, ConcernPct: 15},
	}
}

// DetectTrend inspects values (newest first, nil for missing days) and
// returns an alert, or nil when the move is not sustained. The net change
// runs from the oldest value to the newest; for inverse metrics a rise
// counts as a decline
func DetectTrend(values []*float64, rule TrendRule) *TrendAlert {
	var series []float64
	for _, v := range values {
		if v != nil {
			series = append(series, *v)
		}
	}
	if len(series) < 2 {
		return nil
	}

	newest := series[0]
	oldest := series[len(series)-1]
	if oldest == 0 {
		return nil
	}

	var rises, falls int
	for i := 0; i < len(series)-1; i++ {
		switch {
		case series[i] > series[i+1]:
			rises++
		case series[i] < series[i+1]:
			falls++
		}
	}
	change := (newest - oldest) * 100 / oldest

	declines, improves, signed := falls, rises, change
	if rule.Metric.Inverse() {
		declines, improves, signed = rises, falls, -change
	}

	switch {
	case declines >= rule.MinMoves && signed < -rule.ChangePct:
		sev := SeverityWarning
		if signed < -rule.ConcernPct {
			sev = SeverityConcern
		}
		return &TrendAlert{
			Metric:    rule.Metric,
			Direction: TrendDeclining,
			Days:      len(series),
			ChangePct: round(change, 1),
			Severity:  sev,
		}
	case improves >= rule.MinMoves && signed > rule.ChangePct:
		return &TrendAlert{
			Metric:    rule.Metric,
			Direction: TrendImproving,
			Days:      len(series),
			ChangePct: round(change, 1),
			Severity:  SeverityPositive,
		}
	}
	return nil
}
