package analysis

// Zone is the recovery traffic-light classification
type Zone string

const (
	ZoneGreen   Zone = "green"
	ZoneYellow  Zone = "yellow"
	ZoneRed     Zone = "red"
	ZoneUnknown Zone = "unknown"
)

const (
	GreenZoneMin  = 67
	YellowZoneMin = 34
)

// RecoveryCoefficients are the product-tuned sub-score constants
type RecoveryCoefficients struct {
	HRVSlope       float64
	HRVIntercept   float64
	HRVWeight      float64
	SleepSlope     float64
	SleepIntercept float64
	SleepWeight    float64
	EnergyWeight   float64
}

// DefaultRecoveryCoefficients returns the stock weighting
func DefaultRecoveryCoefficients() RecoveryCoefficients {
	return RecoveryCoefficients{
		HRVSlope:       80,
		HRVIntercept:   20,
		HRVWeight:      1.5,
		SleepSlope:     85,
		SleepIntercept: 15,
		SleepWeight:    1.0,
		EnergyWeight:   1.0,
	}
}

// RecoveryInputs are today's values and their 7-day baselines
type RecoveryInputs struct {
	HRV           *float64
	HRVBaseline   *float64
	SleepHours    *float64
	SleepBaseline *float64
	EnergyCharged *float64
}

// RecoveryResult is a 0-100 recovery score. Factors counts the inputs that
// contributed; with none the score is 0 and the zone unknown
type RecoveryResult struct {
	Score   int  `json:"score"`
	Zone    Zone `json:"zone"`
	Factors int  `json:"factors"`
}

// Known reports whether any factor contributed
func (r RecoveryResult) Known() bool {
	return r.Factors > 0
}

// RecoveryScorer computes the weighted composite recovery score
type RecoveryScorer struct {
	Coefficients RecoveryCoefficients
}

// NewRecoveryScorer creates a scorer with the given coefficients
func NewRecoveryScorer(c RecoveryCoefficients) RecoveryScorer {
	return RecoveryScorer{Coefficients: c}
}

// Score takes the weighted mean of the available sub-scores. Missing
// factors are skipped rather than counted as zero
func (r RecoveryScorer) Score(in RecoveryInputs) RecoveryResult {
	c := r.Coefficients
	var total, weights float64
	factors := 0

	if in.HRV != nil && in.HRVBaseline != nil && *in.HRVBaseline > 0 {
		sub := clamp((*in.HRV / *in.HRVBaseline)*c.HRVSlope+c.HRVIntercept, 0, 100)
		total += sub * c.HRVWeight
		weights += c.HRVWeight
		factors++
	}
	if in.SleepHours != nil && in.SleepBaseline != nil && *in.SleepBaseline > 0 {
		sub := clamp((*in.SleepHours / *in.SleepBaseline)*c.SleepSlope+c.SleepIntercept, 0, 100)
		total += sub * c.SleepWeight
		weights += c.SleepWeight
		factors++
	}
	if in.EnergyCharged != nil {
		total += clamp(*in.EnergyCharged, 0, 100) * c.EnergyWeight
		weights += c.EnergyWeight
		factors++
	}

	if factors == 0 || weights == 0 {
		return RecoveryResult{Zone: ZoneUnknown}
	}

	score := roundInt(total / weights)
	return RecoveryResult{
		Score:   score,
		Zone:    ZoneFor(score),
		Factors: factors,
	}
}

// ZoneFor classifies a recovery score
func ZoneFor(score int) Zone {
	switch {
	case score >= GreenZoneMin:
		return ZoneGreen
	case score >= YellowZoneMin:
		return ZoneYellow
	default:
		return ZoneRed
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
