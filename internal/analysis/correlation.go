package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

// PatternType is the sign of a behavior/outcome association
type PatternType string

const (
	PatternPositive PatternType = "positive"
	PatternNegative PatternType = "negative"
)

const (
	DefaultMinBucketSamples = 3
	DefaultNoiseFloorPct    = 5.0
	confidenceFullSamples   = 10.0
)

// Correlation is a heuristic association between a behavior bucket and an
// outcome. Confidence is min(1, samples/10), not a statistical test
type Correlation struct {
	PatternType PatternType `json:"pattern_type"`
	Category    string      `json:"category"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ImpactPct   float64     `json:"impact_pct"`
	Confidence  float64     `json:"confidence"`
	SampleSize  int         `json:"sample_size"`
}

// CorrelationDetector compares an outcome between days with high and low
// values of a behavior. Days between the two thresholds belong to neither
// bucket. Impact is measured against the low bucket; Invert reports it from
// the low bucket's side, which negates the impact
type CorrelationDetector struct {
	Category      string
	Behavior      Accessor
	Outcome       Accessor
	LagDays       int
	HighThreshold float64 // behavior >= HighThreshold
	LowThreshold  float64 // behavior < LowThreshold
	MinSamples    int
	NoiseFloorPct float64
	Invert        bool

	HighLabel    string // e.g. "7.5h+ of sleep"
	LowLabel     string // e.g. "under 6.5h of sleep"
	OutcomeLabel string // e.g. "HRV"
}

// Detect returns the finding for days, or nil when either bucket is too
// small, the reference mean is zero, or the impact is inside the noise floor
func (c CorrelationDetector) Detect(days []store.DailyMetrics) *Correlation {
	minSamples := c.MinSamples
	if minSamples <= 0 {
		minSamples = DefaultMinBucketSamples
	}

	byDate := make(map[string]store.DailyMetrics, len(days))
	for _, d := range days {
		byDate[DateKey(Day(d.Date))] = d
	}

	var high, low []float64
	for _, d := range days {
		b := c.Behavior(d)
		if b == nil {
			continue
		}
		next, ok := byDate[DateKey(Day(d.Date).AddDate(0, 0, c.LagDays))]
		if !ok {
			continue
		}
		o := c.Outcome(next)
		if o == nil {
			continue
		}
		switch {
		case *b >= c.HighThreshold:
			high = append(high, *o)
		case *b < c.LowThreshold:
			low = append(low, *o)
		}
	}

	if len(high) < minSamples || len(low) < minSamples {
		return nil
	}

	meanHigh, meanLow := mean(high), mean(low)
	if meanLow == 0 {
		return nil
	}

	impact := (meanHigh - meanLow) * 100 / meanLow
	if c.Invert {
		impact = -impact
	}
	if math.Abs(impact) < c.noiseFloor() {
		return nil
	}

	n := len(high) + len(low)
	pattern := PatternPositive
	if impact < 0 {
		pattern = PatternNegative
	}

	return &Correlation{
		PatternType: pattern,
		Category:    c.Category,
		Title:       c.title(pattern),
		Description: c.describe(impact, n),
		ImpactPct:   round(impact, 1),
		Confidence:  round(math.Min(1.0, float64(n)/confidenceFullSamples), 2),
		SampleSize:  n,
	}
}

func (c CorrelationDetector) noiseFloor() float64 {
	if c.NoiseFloorPct <= 0 {
		return DefaultNoiseFloorPct
	}
	return c.NoiseFloorPct
}

func (c CorrelationDetector) treatmentLabel() string {
	if c.Invert {
		return c.LowLabel
	}
	return c.HighLabel
}

func (c CorrelationDetector) referenceLabel() string {
	if c.Invert {
		return c.HighLabel
	}
	return c.LowLabel
}

func (c CorrelationDetector) title(p PatternType) string {
	verb := "boosts"
	if p == PatternNegative {
		verb = "lowers"
	}
	return fmt.Sprintf("%s %s %s", capitalize(c.treatmentLabel()), verb, c.OutcomeLabel)
}

func (c CorrelationDetector) describe(impact float64, n int) string {
	dir := "higher"
	if impact < 0 {
		dir = "lower"
	}
	when := "the same day"
	if c.LagDays == 1 {
		when = "the next day"
	} else if c.LagDays > 1 {
		when = fmt.Sprintf("%d days later", c.LagDays)
	}
	return fmt.Sprintf("After %s, your %s %s is %.0f%% %s than after %s (%d days compared).",
		c.treatmentLabel(), c.OutcomeLabel, when, math.Abs(impact), dir, c.referenceLabel(), n)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// DefaultCorrelationDetectors returns the stock behavior/outcome pairs
func DefaultCorrelationDetectors() []CorrelationDetector {
	return []CorrelationDetector{
		{
			Category:      "sleep",
			Behavior:      MetricSleep.Value,
			Outcome:       MetricHRV.Value,
			HighThreshold: 7.5,
			LowThreshold:  6.5,
			HighLabel:     "7.5h+ of sleep",
			LowLabel:      "under 6.5h of sleep",
			OutcomeLabel:  "HRV",
		},
		{
			Category:      "activity",
			Behavior:      MetricSteps.Value,
			Outcome:       MetricEnergyCharged.Value,
			LagDays:       1,
			HighThreshold: 8000,
			LowThreshold:  5000,
			HighLabel:     "8,000+ step days",
			LowLabel:      "days under 5,000 steps",
			OutcomeLabel:  "energy recharge",
		},
		{
			Category:      "training",
			Behavior:      MetricIntensityMinutes.Value,
			Outcome:       MetricHRV.Value,
			LagDays:       1,
			HighThreshold: 60,
			LowThreshold:  20,
			HighLabel:     "60+ intensity minutes",
			LowLabel:      "under 20 intensity minutes",
			OutcomeLabel:  "HRV",
		},
		{
			Category:      "stress",
			Behavior:      MetricEnergyDrained.Value,
			Outcome:       MetricSleep.Value,
			LagDays:       1,
			HighThreshold: 60,
			LowThreshold:  30,
			HighLabel:     "high-drain days",
			LowLabel:      "low-drain days",
			OutcomeLabel:  "sleep",
		},
	}
}

// DetectCorrelations runs every detector and ranks the findings by
// confidence, then by impact magnitude
func DetectCorrelations(days []store.DailyMetrics, detectors []CorrelationDetector) []Correlation {
	found := []Correlation{}
	for _, d := range detectors {
		if c := d.Detect(days); c != nil {
			found = append(found, *c)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Confidence != found[j].Confidence {
			return found[i].Confidence > found[j].Confidence
		}
		return math.Abs(found[i].ImpactPct) > math.Abs(found[j].ImpactPct)
	})
	return found
}
