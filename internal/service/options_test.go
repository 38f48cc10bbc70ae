package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/config"
)

func TestOptionsFromDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	got := OptionsFromConfig(&cfg)
	want := DefaultOptions()

	assert.Equal(t, want.Scorer, got.Scorer)
	assert.Equal(t, want.SleepTarget, got.SleepTarget)
	assert.Equal(t, want.StepGoal, got.StepGoal)
	assert.Equal(t, want.HistoryDays, got.HistoryDays)
	assert.Zero(t, got.LoadSeedDays, "load replays the full history unless capped")
	assert.Equal(t, want.SleepDebtWindow, got.SleepDebtWindow)
	assert.Equal(t, want.SleepDebtBands, got.SleepDebtBands)
	assert.Len(t, got.Detectors, len(want.Detectors))
	assert.Equal(t, want.TrendRules, got.TrendRules)
}

func TestOptionsFromConfigOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Athlete.SleepTargetHours = 8
	cfg.Athlete.StepGoal = 12000
	cfg.Analysis.HistoryDays = 90
	cfg.Analysis.LoadSeedDays = 365
	cfg.Scoring.Recovery.HRVWeight = 2
	cfg.Scoring.SleepDebt = config.SleepDebtConfig{WindowDays: 14, Moderate: 4, Significant: 10, Severe: 16}

	got := OptionsFromConfig(&cfg)

	assert.Equal(t, 8.0, got.SleepTarget)
	assert.Equal(t, 12000, got.StepGoal)
	assert.Equal(t, 90, got.HistoryDays)
	assert.Equal(t, 365, got.LoadSeedDays)
	assert.Equal(t, 2.0, got.Scorer.Coefficients.HRVWeight)
	assert.Equal(t, 80.0, got.Scorer.Coefficients.HRVSlope)
	assert.Equal(t, 14, got.SleepDebtWindow)
	assert.Equal(t, analysis.SleepDebtBands{Moderate: 4, Significant: 10, Severe: 16}, got.SleepDebtBands)

	summary := got.summaryOptions()
	assert.Equal(t, 12000, summary.StepGoal)
	assert.Equal(t, 90, summary.HistoryDays)
}

func TestOptionsFromEmptyConfig(t *testing.T) {
	got := OptionsFromConfig(&config.Config{})
	want := DefaultOptions()

	assert.Equal(t, want.Scorer, got.Scorer)
	assert.Equal(t, want.SleepTarget, got.SleepTarget)
	assert.Equal(t, want.SleepDebtBands, got.SleepDebtBands)
	assert.Equal(t, want.LoadSeedDays, got.LoadSeedDays)
}
