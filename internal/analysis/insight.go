package analysis

import (
	"fmt"
	"strings"
)

// Decision is the day's training recommendation
type Decision string

const (
	DecisionGo       Decision = "GO"
	DecisionModerate Decision = "MODERATE"
	DecisionRecover  Decision = "RECOVER"
)

const (
	strainAdjustmentBase     = 10.0
	strainAdjustmentPerPoint = 0.05
	debtRepaymentDays        = 7.0

	shortSleepHours         = 6.0
	shortSleepBaselineRatio = 0.85
	lowRechargeEnergy       = 30.0
)

// Insight is the composed daily decision
type Insight struct {
	Decision     Decision   `json:"decision"`
	Headline     string     `json:"headline"`
	Explanation  string     `json:"explanation"`
	StrainTarget [2]float64 `json:"strain_target"`
	SleepTarget  float64    `json:"sleep_target"`
}

// InsightInputs collects everything the composer reads
type InsightInputs struct {
	Recovery        RecoveryResult
	YesterdayStrain *float64
	SleepHours      *float64
	SleepBaseline   *float64
	SleepTarget     float64 // used when no sleep baseline exists
	SleepDebtHours  float64
	EnergyCharged   *float64
	HRVDirection    *DirectionResult
}

// StrainTargetFor maps a recovery zone to the recommended strain range
func StrainTargetFor(z Zone) [2]float64 {
	switch z {
	case ZoneGreen:
		return [2]float64{14, 21}
	case ZoneYellow:
		return [2]float64{8, 14}
	default:
		return [2]float64{0, 8}
	}
}

// DecisionFor maps a recovery zone to a decision
func DecisionFor(z Zone) Decision {
	switch z {
	case ZoneGreen:
		return DecisionGo
	case ZoneYellow:
		return DecisionModerate
	default:
		return DecisionRecover
	}
}

// SleepTarget returns tonight's recommended sleep: the base need plus an
// allowance for yesterday's strain plus a seventh of the outstanding debt
func SleepTarget(base float64, yesterdayStrain *float64, debtHours float64) float64 {
	adjustment := 0.0
	if yesterdayStrain != nil {
		adjustment = max(0, (*yesterdayStrain-strainAdjustmentBase)*strainAdjustmentPerPoint)
	}
	return round(base+adjustment+debtHours/debtRepaymentDays, 2)
}

// ComposeInsight builds the decision payload. Returns nil when recovery
// could not be scored
func ComposeInsight(in InsightInputs) *Insight {
	if !in.Recovery.Known() {
		return nil
	}

	base := in.SleepTarget
	if in.SleepBaseline != nil && *in.SleepBaseline > 0 {
		base = *in.SleepBaseline
	}
	if base <= 0 {
		base = DefaultSleepTargetHours
	}

	decision := DecisionFor(in.Recovery.Zone)
	return &Insight{
		Decision:     decision,
		Headline:     headline(decision),
		Explanation:  explain(in),
		StrainTarget: StrainTargetFor(in.Recovery.Zone),
		SleepTarget:  SleepTarget(base, in.YesterdayStrain, in.SleepDebtHours),
	}
}

func headline(d Decision) string {
	switch d {
	case DecisionGo:
		return "Ready to perform"
	case DecisionModerate:
		return "Train with moderation"
	default:
		return "Prioritize recovery"
	}
}

func explain(in InsightInputs) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Recovery is %d (%s zone).", in.Recovery.Score, in.Recovery.Zone))

	if d := in.HRVDirection; d != nil {
		switch d.Direction {
		case DirectionUp:
			parts = append(parts, fmt.Sprintf("HRV is up %.0f%% vs your 7-day baseline.", d.ChangePct))
		case DirectionDown:
			parts = append(parts, fmt.Sprintf("HRV is down %.0f%% vs your 7-day baseline.", -d.ChangePct))
		default:
			parts = append(parts, "HRV is in line with your 7-day baseline.")
		}
	}

	if in.SleepHours != nil {
		short := *in.SleepHours < shortSleepHours
		if in.SleepBaseline != nil && *in.SleepBaseline > 0 && *in.SleepHours < *in.SleepBaseline*shortSleepBaselineRatio {
			short = true
		}
		if short {
			parts = append(parts, fmt.Sprintf("Short sleep (%.1fh) is limiting recovery.", *in.SleepHours))
		}
	}
	if in.EnergyCharged != nil && *in.EnergyCharged < lowRechargeEnergy {
		parts = append(parts, fmt.Sprintf("Overnight energy recharge was low (%.0f).", *in.EnergyCharged))
	}

	return strings.Join(parts, " ")
}
