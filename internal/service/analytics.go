package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/telemetry"
)

// RecoveryPayload is the day's recovery score. Score is nil when no factor
// could be scored
type RecoveryPayload struct {
	Score   *int          `json:"score"`
	Zone    analysis.Zone `json:"zone"`
	Factors int           `json:"factors"`
}

// DailyAnalytics is everything the presentation layer renders for a day.
// A nil pointer means insufficient data and must not be shown as zero
type DailyAnalytics struct {
	UserID          uuid.UUID                                     `json:"user_id"`
	Date            string                                        `json:"date"`
	HasData         bool                                          `json:"has_data"`
	Recovery        RecoveryPayload                               `json:"recovery"`
	Strain          *float64                                      `json:"strain"`
	YesterdayStrain *float64                                      `json:"yesterday_strain"`
	Insight         *analysis.Insight                             `json:"insight"`
	Today           map[analysis.Metric]*float64                  `json:"today"`
	Baselines       analysis.BaselineSet                          `json:"baselines"`
	Directions      map[analysis.Metric]*analysis.DirectionResult `json:"directions"`
	SleepDebt       analysis.SleepDebtResult                      `json:"sleep_debt"`
	TrainingLoad    analysis.LoadState                            `json:"training_load"`
	WeeklySummary   analysis.WeeklySummary                        `json:"weekly_summary"`
	RecoveryHistory []analysis.DaySummary                         `json:"recovery_history"`
}

// AnalyticsService computes the daily analytics payload from a
// TimeSeriesSource
type AnalyticsService struct {
	source  TimeSeriesSource
	tracker *LoadTracker
	opts    Options
	logger  logrus.FieldLogger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(source TimeSeriesSource, tracker *LoadTracker, opts Options, logger logrus.FieldLogger) *AnalyticsService {
	return &AnalyticsService{
		source:  source,
		tracker: tracker,
		opts:    opts,
		logger:  logger,
		tracer:  telemetry.Tracer(),
		now:     time.Now,
	}
}

// ComputeDailyAnalytics builds the payload for asOf. A zero asOf means the
// user's most recent day. An empty history yields a neutral payload
func (s *AnalyticsService) ComputeDailyAnalytics(ctx context.Context, userID uuid.UUID, asOf time.Time) (*DailyAnalytics, error) {
	ctx, span := s.tracer.Start(ctx, "ComputeDailyAnalytics", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	result, err := s.compute(ctx, userID, asOf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("as_of", result.Date),
		attribute.String("recovery_zone", string(result.Recovery.Zone)),
	)
	return result, nil
}

func (s *AnalyticsService) compute(ctx context.Context, userID uuid.UUID, asOf time.Time) (*DailyAnalytics, error) {
	if asOf.IsZero() {
		latest, err := s.source.LatestDate(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNoData):
			asOf = s.now()
		case err != nil:
			return nil, fmt.Errorf("getting latest date: %w", err)
		default:
			asOf = latest
		}
	}
	asOf = analysis.Day(asOf)

	historyDays := s.opts.HistoryDays
	if historyDays < analysis.WeekDays {
		historyDays = analysis.WeekDays
	}
	start := asOf.AddDate(0, 0, -(historyDays + BaselineLookbackDays))

	raw, err := s.source.FetchRange(ctx, userID, start, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	days := analysis.NewestFirst(raw)

	load, err := s.tracker.Advance(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("advancing training load: %w", err)
	}

	result := Assemble(userID, days, asOf, load, s.opts)

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"as_of":    result.Date,
		"days":     len(days),
		"recovery": result.Recovery.Zone,
	}).Debug("Computed daily analytics")

	return result, nil
}

// Assemble builds the payload from newest-first days and an already advanced
// load state. It performs no I/O
func Assemble(userID uuid.UUID, days []store.DailyMetrics, asOf time.Time, load analysis.LoadState, opts Options) *DailyAnalytics {
	asOf = analysis.Day(asOf)
	prior := analysis.Before(days, asOf)
	today := analysis.Find(days, asOf)
	baselines := analysis.ComputeBaselines(prior)

	result := &DailyAnalytics{
		UserID:       userID,
		Date:         analysis.DateKey(asOf),
		HasData:      today != nil,
		Today:        make(map[analysis.Metric]*float64, len(analysis.AllMetrics)),
		Baselines:    baselines,
		Directions:   make(map[analysis.Metric]*analysis.DirectionResult, len(analysis.AllMetrics)),
		TrainingLoad: load,
	}

	var todayRec store.DailyMetrics
	if today != nil {
		todayRec = *today
	}

	for _, m := range analysis.AllMetrics {
		v := m.Value(todayRec)
		result.Today[m] = v
		result.Directions[m] = analysis.ClassifyMetric(m, v, baselines.Short(m), analysis.DailyDirectionThresholdPct)
	}

	recovery := opts.Scorer.Score(analysis.RecoveryInputs{
		HRV:           todayRec.HRV,
		HRVBaseline:   baselines.Short(analysis.MetricHRV),
		SleepHours:    todayRec.SleepHours,
		SleepBaseline: baselines.Short(analysis.MetricSleep),
		EnergyCharged: todayRec.EnergyCharged,
	})
	result.Recovery = RecoveryPayload{Zone: recovery.Zone, Factors: recovery.Factors}
	if recovery.Known() {
		score := recovery.Score
		result.Recovery.Score = &score
	}

	if today != nil {
		result.Strain = analysis.DayStrain(*today)
	}
	if yesterday := analysis.Find(days, asOf.AddDate(0, 0, -1)); yesterday != nil {
		result.YesterdayStrain = analysis.DayStrain(*yesterday)
	}

	result.SleepDebt = analysis.AccumulateSleepDebt(days, asOf, opts.SleepDebtWindow, opts.SleepTarget, opts.SleepDebtBands)

	result.Insight = analysis.ComposeInsight(analysis.InsightInputs{
		Recovery:        recovery,
		YesterdayStrain: result.YesterdayStrain,
		SleepHours:      todayRec.SleepHours,
		SleepBaseline:   baselines.Short(analysis.MetricSleep),
		SleepTarget:     opts.SleepTarget,
		SleepDebtHours:  result.SleepDebt.DebtHours,
		EnergyCharged:   todayRec.EnergyCharged,
		HRVDirection:    result.Directions[analysis.MetricHRV],
	})

	result.WeeklySummary = analysis.BuildWeeklySummary(days, asOf, opts.summaryOptions())
	result.RecoveryHistory = analysis.ScoreHistory(days, asOf, recoveryHistoryDays, opts.Scorer)

	return result
}
