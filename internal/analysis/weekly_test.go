package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

// steadyWeeks is three weeks of identical days ending at 2024-03-31, except
// for a rough night two days before the end.
func steadyWeeks() []store.DailyMetrics {
	return series(date("2024-03-31"), 21, func(i int, d *store.DailyMetrics) {
		d.HRV = floatP(50)
		d.SleepHours = floatP(7.5)
		d.EnergyCharged = floatP(70)
		d.Steps = intP(10000)
		if i == 2 {
			d.HRV = floatP(10)
			d.SleepHours = floatP(2)
			d.EnergyCharged = floatP(5)
		}
	})
}

func TestScoreDay(t *testing.T) {
	days := steadyWeeks()

	got := ScoreDay(days, date("2024-03-31"), NewRecoveryScorer(DefaultRecoveryCoefficients()))
	require.NotNil(t, got.Recovery)
	assert.Equal(t, 91, *got.Recovery)
	assert.Equal(t, ZoneGreen, got.Zone)
	require.NotNil(t, got.Strain)
	assert.Equal(t, 5.0, *got.Strain)

	// (36*1.5 + 37.67 + 5) / 3.5
	got = ScoreDay(days, date("2024-03-29"), NewRecoveryScorer(DefaultRecoveryCoefficients()))
	require.NotNil(t, got.Recovery)
	assert.Equal(t, 28, *got.Recovery)
	assert.Equal(t, ZoneRed, got.Zone)

	got = ScoreDay(days, date("2024-04-01"), NewRecoveryScorer(DefaultRecoveryCoefficients()))
	assert.Nil(t, got.Recovery)
	assert.Nil(t, got.Strain)
	assert.Equal(t, ZoneUnknown, got.Zone)
}

func TestBuildWeeklySummary(t *testing.T) {
	asOf := date("2024-03-31")
	summary := BuildWeeklySummary(steadyWeeks(), asOf, DefaultSummaryOptions())

	assert.Equal(t, 6, summary.GreenDays)
	assert.Equal(t, 0, summary.YellowDays)
	assert.Equal(t, 1, summary.RedDays)

	require.Len(t, summary.Days, 7)
	assert.Equal(t, asOf, summary.Days[0].Date)

	require.NotNil(t, summary.BestDay)
	assert.Equal(t, asOf, summary.BestDay.Date)
	assert.Equal(t, 91, *summary.BestDay.Recovery)
	require.NotNil(t, summary.WorstDay)
	assert.Equal(t, date("2024-03-29"), summary.WorstDay.Date)
	assert.Equal(t, 28, *summary.WorstDay.Recovery)

	avg := summary.Averages
	assert.Equal(t, 82.0, *avg["recovery"])
	assert.Equal(t, 5.0, *avg["strain"])
	assert.Equal(t, 44.3, *avg["hrv"])
	assert.Equal(t, 6.71, *avg["sleep"])
	assert.Equal(t, 10000.0, *avg["steps"])
	assert.Nil(t, avg["resting_hr"])

	wow := summary.WeekOverWeek
	require.NotNil(t, wow[MetricHRV])
	assert.Equal(t, DirectionDown, wow[MetricHRV].Direction)
	assert.Equal(t, -11.4, wow[MetricHRV].ChangePct)
	require.NotNil(t, wow[MetricSleep])
	assert.Equal(t, DirectionDown, wow[MetricSleep].Direction)
	require.NotNil(t, wow[MetricSteps])
	assert.Equal(t, DirectionStable, wow[MetricSteps].Direction)
	assert.Nil(t, wow[MetricRestingHR])

	require.Len(t, summary.Streaks, 3)
	byName := make(map[string]Streak)
	for _, s := range summary.Streaks {
		byName[s.Name] = s
	}
	assert.Equal(t, 2, byName[StreakGreenRecovery].CurrentCount)
	assert.Equal(t, 18, byName[StreakGreenRecovery].BestCount)
	assert.Equal(t, 21, byName[StreakStepGoal].CurrentCount)
	assert.Equal(t, 21, byName[StreakStepGoal].BestCount)
	assert.Equal(t, 2, byName[StreakSleepGoal].CurrentCount)
	assert.Equal(t, 18, byName[StreakSleepGoal].BestCount)

	assert.Empty(t, summary.TrendAlerts)
	assert.Empty(t, summary.Correlations)
}

func TestBuildWeeklySummaryIgnoresLaterDays(t *testing.T) {
	days := append(series(date("2024-04-03"), 3, func(i int, d *store.DailyMetrics) {
		d.EnergyCharged = floatP(1)
	}), steadyWeeks()...)

	summary := BuildWeeklySummary(days, date("2024-03-31"), DefaultSummaryOptions())
	assert.Equal(t, 6, summary.GreenDays)
	assert.Equal(t, 1, summary.RedDays)
	assert.Equal(t, date("2024-03-31"), summary.Days[0].Date)
}

func TestBuildWeeklySummaryEmpty(t *testing.T) {
	summary := BuildWeeklySummary(nil, date("2024-03-31"), DefaultSummaryOptions())

	assert.Zero(t, summary.GreenDays)
	assert.Zero(t, summary.YellowDays)
	assert.Zero(t, summary.RedDays)
	assert.Nil(t, summary.BestDay)
	assert.Nil(t, summary.WorstDay)
	assert.Len(t, summary.Days, 7)
	for _, d := range summary.Days {
		assert.Equal(t, ZoneUnknown, d.Zone)
	}
	assert.Nil(t, summary.Averages["recovery"])

	assert.NotNil(t, summary.Correlations)
	assert.Empty(t, summary.Correlations)
	assert.NotNil(t, summary.TrendAlerts)
	assert.Empty(t, summary.TrendAlerts)
	require.Len(t, summary.Streaks, 3)
	for _, s := range summary.Streaks {
		assert.Zero(t, s.CurrentCount)
		assert.Zero(t, s.BestCount)
		assert.False(t, s.IsActive)
	}
}
