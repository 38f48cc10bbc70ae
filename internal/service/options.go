package service

import (
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/config"
)

// Options tunes the analytics computed for a user
type Options struct {
	Scorer          analysis.RecoveryScorer
	SleepTarget     float64
	StepGoal        int
	HistoryDays     int
	LoadSeedDays    int // caps rebuilds to this many days; 0 replays all history
	SleepDebtWindow int
	SleepDebtBands  analysis.SleepDebtBands
	Detectors       []analysis.CorrelationDetector
	TrendRules      []analysis.TrendRule
}

// DefaultOptions returns the stock tuning
func DefaultOptions() Options {
	return Options{
		Scorer:          analysis.NewRecoveryScorer(analysis.DefaultRecoveryCoefficients()),
		SleepTarget:     analysis.DefaultSleepTargetHours,
		StepGoal:        analysis.DefaultStepGoal,
		HistoryDays:     analysis.DefaultHistoryDays,
		SleepDebtWindow: analysis.DefaultSleepDebtWindow,
		SleepDebtBands:  analysis.DefaultSleepDebtBands(),
		Detectors:       analysis.DefaultCorrelationDetectors(),
		TrendRules:      analysis.DefaultTrendRules(),
	}
}

// OptionsFromConfig maps configuration onto Options. Zero values keep
// the defaults
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()

	if r := cfg.Scoring.Recovery; r != (config.RecoveryConfig{}) {
		opts.Scorer = analysis.NewRecoveryScorer(analysis.RecoveryCoefficients{
			HRVSlope:       r.HRVSlope,
			HRVIntercept:   r.HRVIntercept,
			HRVWeight:      r.HRVWeight,
			SleepSlope:     r.SleepSlope,
			SleepIntercept: r.SleepIntercept,
			SleepWeight:    r.SleepWeight,
			EnergyWeight:   r.EnergyWeight,
		})
	}

	if cfg.Athlete.SleepTargetHours > 0 {
		opts.SleepTarget = cfg.Athlete.SleepTargetHours
	}
	if cfg.Athlete.StepGoal > 0 {
		opts.StepGoal = cfg.Athlete.StepGoal
	}
	if cfg.Analysis.HistoryDays > 0 {
		opts.HistoryDays = cfg.Analysis.HistoryDays
	}
	if cfg.Analysis.LoadSeedDays > 0 {
		opts.LoadSeedDays = cfg.Analysis.LoadSeedDays
	}

	sd := cfg.Scoring.SleepDebt
	if sd.WindowDays > 0 {
		opts.SleepDebtWindow = sd.WindowDays
	}
	if sd.Severe > 0 {
		opts.SleepDebtBands = analysis.SleepDebtBands{
			Moderate:    sd.Moderate,
			Significant: sd.Significant,
			Severe:      sd.Severe,
		}
	}

	return opts
}

func (o Options) summaryOptions() analysis.SummaryOptions {
	return analysis.SummaryOptions{
		Scorer:      o.Scorer,
		SleepTarget: o.SleepTarget,
		StepGoal:    o.StepGoal,
		HistoryDays: o.HistoryDays,
		Detectors:   o.Detectors,
		TrendRules:  o.TrendRules,
	}
}
