package analysis

import (
	"time"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

const (
	WeekDays              = 7
	DefaultStepGoal       = 10000
	DefaultHistoryDays    = 60
	weekOverWeekMinSample = MinBaselineSamples
)

// DaySummary is one scored calendar day
type DaySummary struct {
	Date       time.Time `json:"date"`
	Recovery   *int      `json:"recovery"`
	Zone       Zone      `json:"zone"`
	Strain     *float64  `json:"strain"`
	HRV        *float64  `json:"hrv"`
	SleepHours *float64  `json:"sleep_hours"`
}

// WeeklySummary is the read model for the seven days ending at the as-of date
type WeeklySummary struct {
	GreenDays    int                         `json:"green_days"`
	YellowDays   int                         `json:"yellow_days"`
	RedDays      int                         `json:"red_days"`
	Averages     map[string]*float64         `json:"averages"`
	BestDay      *DaySummary                 `json:"best_day"`
	WorstDay     *DaySummary                 `json:"worst_day"`
	Days         []DaySummary                `json:"days"`
	WeekOverWeek map[Metric]*DirectionResult `json:"week_over_week"`
	Correlations []Correlation               `json:"correlations"`
	Streaks      []Streak                    `json:"streaks"`
	TrendAlerts  []TrendAlert                `json:"trend_alerts"`
}

// SummaryOptions configures summary assembly
type SummaryOptions struct {
	Scorer      RecoveryScorer
	SleepTarget float64
	StepGoal    int
	HistoryDays int
	Detectors   []CorrelationDetector
	TrendRules  []TrendRule
}

// DefaultSummaryOptions returns the stock configuration
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		Scorer:      NewRecoveryScorer(DefaultRecoveryCoefficients()),
		SleepTarget: DefaultSleepTargetHours,
		StepGoal:    DefaultStepGoal,
		HistoryDays: DefaultHistoryDays,
		Detectors:   DefaultCorrelationDetectors(),
		TrendRules:  DefaultTrendRules(),
	}
}

// ScoreDay scores a single date against the days before it. days must be
// newest first. A date with no record is returned with an unknown zone
func ScoreDay(days []store.DailyMetrics, date time.Time, scorer RecoveryScorer) DaySummary {
	date = Day(date)
	summary := DaySummary{Date: date, Zone: ZoneUnknown}

	rec := Find(days, date)
	if rec == nil {
		return summary
	}

	prior := Before(days, date)
	result := scorer.Score(RecoveryInputs{
		HRV:           rec.HRV,
		HRVBaseline:   Average(prior, ShortWindowDays, MetricHRV),
		SleepHours:    rec.SleepHours,
		SleepBaseline: Average(prior, ShortWindowDays, MetricSleep),
		EnergyCharged: rec.EnergyCharged,
	})
	if result.Known() {
		score := result.Score
		summary.Recovery = &score
		summary.Zone = result.Zone
	}
	summary.Strain = DayStrain(*rec)
	summary.HRV = rec.HRV
	summary.SleepHours = rec.SleepHours
	return summary
}

// ScoreHistory scores n calendar days ending at asOf, newest first
func ScoreHistory(days []store.DailyMetrics, asOf time.Time, n int, scorer RecoveryScorer) []DaySummary {
	asOf = Day(asOf)
	out := make([]DaySummary, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, ScoreDay(days, asOf.AddDate(0, 0, -k), scorer))
	}
	return out
}

// BuildWeeklySummary assembles the weekly read model. days must be newest
// first and may extend past the history window; records after asOf are
// ignored
func BuildWeeklySummary(days []store.DailyMetrics, asOf time.Time, opts SummaryOptions) WeeklySummary {
	asOf = Day(asOf)
	days = Before(days, asOf.AddDate(0, 0, 1))

	historyDays := opts.HistoryDays
	if historyDays < WeekDays {
		historyDays = WeekDays
	}

	history := ScoreHistory(days, asOf, historyDays, opts.Scorer)
	week := history[:WeekDays]

	summary := WeeklySummary{
		Days:         week,
		Averages:     weekAverages(week, days, asOf),
		WeekOverWeek: weekOverWeek(days, asOf),
		Correlations: DetectCorrelations(inWindow(days, asOf, historyDays), opts.Detectors),
		Streaks:      trackStreaks(history, days, opts),
		TrendAlerts:  detectTrends(days, asOf, opts.TrendRules),
	}

	for i := range week {
		d := &week[i]
		switch d.Zone {
		case ZoneGreen:
			summary.GreenDays++
		case ZoneYellow:
			summary.YellowDays++
		case ZoneRed:
			summary.RedDays++
		}
		if d.Recovery == nil {
			continue
		}
		if summary.BestDay == nil || *d.Recovery > *summary.BestDay.Recovery {
			summary.BestDay = d
		}
		if summary.WorstDay == nil || *d.Recovery < *summary.WorstDay.Recovery {
			summary.WorstDay = d
		}
	}

	return summary
}

func inWindow(days []store.DailyMetrics, asOf time.Time, n int) []store.DailyMetrics {
	cutoff := asOf.AddDate(0, 0, -n)
	var out []store.DailyMetrics
	for _, d := range days {
		if !d.Date.After(cutoff) {
			break
		}
		if !d.Date.After(asOf) {
			out = append(out, d)
		}
	}
	return out
}

func weekAverages(week []DaySummary, days []store.DailyMetrics, asOf time.Time) map[string]*float64 {
	var recovery, strain []float64
	for _, d := range week {
		if d.Recovery != nil {
			recovery = append(recovery, float64(*d.Recovery))
		}
		if d.Strain != nil {
			strain = append(strain, *d.Strain)
		}
	}

	recent := inWindow(days, asOf, WeekDays)
	return map[string]*float64{
		"recovery":   avgOrNil(recovery, 1),
		"strain":     avgOrNil(strain, 1),
		"hrv":        avgOrNil(collect(recent, MetricHRV), 1),
		"sleep":      avgOrNil(collect(recent, MetricSleep), 2),
		"steps":      avgOrNil(collect(recent, MetricSteps), 0),
		"resting_hr": avgOrNil(collect(recent, MetricRestingHR), 1),
	}
}

func weekOverWeek(days []store.DailyMetrics, asOf time.Time) map[Metric]*DirectionResult {
	thisWeek := inWindow(days, asOf, WeekDays)
	lastWeek := inWindow(days, asOf.AddDate(0, 0, -WeekDays), WeekDays)

	out := make(map[Metric]*DirectionResult)
	for _, m := range []Metric{MetricHRV, MetricSleep, MetricEnergyCharged, MetricRestingHR, MetricSteps} {
		cur := sampleMean(collect(thisWeek, m))
		prev := sampleMean(collect(lastWeek, m))
		out[m] = ClassifyMetric(m, cur, prev, WeeklyDirectionThresholdPct)
	}
	return out
}

func trackStreaks(history []DaySummary, days []store.DailyMetrics, opts SummaryOptions) []Streak {
	stepGoal := opts.StepGoal
	if stepGoal <= 0 {
		stepGoal = DefaultStepGoal
	}
	sleepTarget := opts.SleepTarget
	if sleepTarget <= 0 {
		sleepTarget = DefaultSleepTargetHours
	}

	green := make([]DayFlag, len(history))
	steps := make([]DayFlag, len(history))
	sleep := make([]DayFlag, len(history))
	for i, h := range history {
		green[i] = DayFlag{Date: h.Date}
		steps[i] = DayFlag{Date: h.Date}
		sleep[i] = DayFlag{Date: h.Date}

		if h.Recovery != nil {
			green[i].Met = boolPtr(h.Zone == ZoneGreen)
		}
		rec := Find(days, h.Date)
		if rec == nil {
			continue
		}
		if rec.Steps != nil {
			steps[i].Met = boolPtr(*rec.Steps >= stepGoal)
		}
		if rec.SleepHours != nil {
			sleep[i].Met = boolPtr(*rec.SleepHours >= sleepTarget)
		}
	}

	return []Streak{
		TrackStreak(StreakGreenRecovery, green),
		TrackStreak(StreakStepGoal, steps),
		TrackStreak(StreakSleepGoal, sleep),
	}
}

func detectTrends(days []store.DailyMetrics, asOf time.Time, rules []TrendRule) []TrendAlert {
	alerts := []TrendAlert{}
	for _, rule := range rules {
		n := rule.Days
		if n <= 0 {
			n = WeekDays
		}
		values := make([]*float64, n)
		for k := 0; k < n; k++ {
			if rec := Find(days, asOf.AddDate(0, 0, -k)); rec != nil {
				values[k] = rule.Metric.Value(*rec)
			}
		}
		if a := DetectTrend(values, rule); a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}

func collect(days []store.DailyMetrics, m Metric) []float64 {
	var out []float64
	for _, d := range days {
		if v := m.Value(d); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func avgOrNil(values []float64, places int32) *float64 {
	if len(values) == 0 {
		return nil
	}
	return floatPtr(round(mean(values), places))
}

func sampleMean(values []float64) *float64 {
	if len(values) < weekOverWeekMinSample {
		return nil
	}
	return floatPtr(round(mean(values), 2))
}
