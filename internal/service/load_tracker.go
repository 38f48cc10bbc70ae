package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

// LoadTracker carries CTL/ATL forward through a checkpoint so each request
// only replays the days since the last one. The checkpoint only ever covers
// days up to the newest stored record; later days are projected at zero load
// and not persisted, so data arriving later is never skipped
type LoadTracker struct {
	source      TimeSeriesSource
	checkpoints CheckpointStore
	seedDays    int
	logger      logrus.FieldLogger
	tracer      trace.Tracer

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewLoadTracker creates a tracker. Rebuilds replay the user's whole
// history unless seedDays caps them to that many trailing days
func NewLoadTracker(source TimeSeriesSource, checkpoints CheckpointStore, seedDays int, logger logrus.FieldLogger) *LoadTracker {
	if seedDays < 0 {
		seedDays = 0
	}
	return &LoadTracker{
		source:      source,
		checkpoints: checkpoints,
		seedDays:    seedDays,
		logger:      logger,
		tracer:      telemetry.Tracer(),
	}
}

func (t *LoadTracker) lock(userID uuid.UUID) func() {
	m, _ := t.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Advance returns the load state as of asOf, persisting the checkpoint
// forward when new days are available
func (t *LoadTracker) Advance(ctx context.Context, userID uuid.UUID, asOf time.Time) (analysis.LoadState, error) {
	asOf = analysis.Day(asOf)

	ctx, span := t.tracer.Start(ctx, "LoadTracker.Advance", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("as_of", analysis.DateKey(asOf)),
	))
	defer span.End()

	unlock := t.lock(userID)
	defer unlock()

	for attempt := 1; attempt <= MaxCheckpointRetries; attempt++ {
		state, err := t.advanceOnce(ctx, userID, asOf)
		if errors.Is(err, analysis.ErrCheckpointConflict) {
			t.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"attempt": attempt,
			}).Debug("Checkpoint changed underneath us, retrying")
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return state, err
	}

	err := fmt.Errorf("advancing load after %d attempts: %w", MaxCheckpointRetries, analysis.ErrCheckpointConflict)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return analysis.LoadState{}, err
}

func (t *LoadTracker) advanceOnce(ctx context.Context, userID uuid.UUID, asOf time.Time) (analysis.LoadState, error) {
	latest, err := t.source.LatestDate(ctx, userID)
	if errors.Is(err, store.ErrNoData) {
		return analysis.NewLoadModel(0, 0).State(), nil
	}
	if err != nil {
		return analysis.LoadState{}, fmt.Errorf("getting latest date: %w", err)
	}

	// Only days with data are persisted
	persistThrough := analysis.Day(latest)
	if asOf.Before(persistThrough) {
		persistThrough = asOf
	}

	cp, err := t.checkpoints.GetCheckpoint(ctx, userID)
	switch {
	case errors.Is(err, analysis.ErrNoCheckpoint):
		return t.seed(ctx, userID, persistThrough, asOf)
	case err != nil:
		return analysis.LoadState{}, fmt.Errorf("reading checkpoint: %w", err)
	case asOf.Before(cp.LastUpdate):
		// Historical query, the checkpoint is already past it
		model, err := t.replay(ctx, userID, asOf)
		if err != nil {
			return analysis.LoadState{}, err
		}
		return model.State(), nil
	}

	model := analysis.FromCheckpoint(*cp)
	validThrough := cp.LastUpdate

	if persistThrough.After(cp.LastUpdate) {
		from := cp.LastUpdate.AddDate(0, 0, 1)
		days, err := t.source.FetchRange(ctx, userID, from, persistThrough)
		if err != nil {
			return analysis.LoadState{}, fmt.Errorf("fetching load days: %w", err)
		}
		model.Replay(analysis.DailyLoads(days), from, persistThrough)

		prev := cp.LastUpdate
		if err := t.checkpoints.SaveCheckpoint(ctx, model.Checkpoint(userID, persistThrough), &prev); err != nil {
			return analysis.LoadState{}, err
		}
		validThrough = persistThrough

		t.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"from":    analysis.DateKey(from),
			"through": analysis.DateKey(persistThrough),
			"days":    len(days),
		}).Debug("Advanced load checkpoint")
	}

	project(model, validThrough, asOf)
	return model.State(), nil
}

// seed builds the first checkpoint from a replay of the stored history
func (t *LoadTracker) seed(ctx context.Context, userID uuid.UUID, persistThrough, asOf time.Time) (analysis.LoadState, error) {
	model, err := t.replay(ctx, userID, persistThrough)
	if err != nil {
		return analysis.LoadState{}, err
	}

	if err := t.checkpoints.SaveCheckpoint(ctx, model.Checkpoint(userID, persistThrough), nil); err != nil {
		return analysis.LoadState{}, err
	}

	t.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"through":   analysis.DateKey(persistThrough),
		"seed_days": t.seedDays,
	}).Info("Seeded load checkpoint")

	project(model, persistThrough, asOf)
	return model.State(), nil
}

// replay runs the model from zero over every stored day up to through, or
// over the last seedDays of them when a cap is set
func (t *LoadTracker) replay(ctx context.Context, userID uuid.UUID, through time.Time) (*analysis.LoadModel, error) {
	model := analysis.NewLoadModel(0, 0)

	from, err := t.source.EarliestDate(ctx, userID)
	if errors.Is(err, store.ErrNoData) {
		return model, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting earliest date: %w", err)
	}
	from = analysis.Day(from)
	if t.seedDays > 0 {
		if capped := through.AddDate(0, 0, -(t.seedDays - 1)); capped.After(from) {
			from = capped
		}
	}
	if from.After(through) {
		return model, nil
	}

	days, err := t.source.FetchRange(ctx, userID, from, through)
	if err != nil {
		return nil, fmt.Errorf("fetching load days: %w", err)
	}

	model.Replay(analysis.DailyLoads(days), from, through)
	return model, nil
}

// project steps zero-load days after validThrough up to asOf
func project(model *analysis.LoadModel, validThrough, asOf time.Time) {
	if asOf.After(validThrough) {
		model.Replay(nil, validThrough.AddDate(0, 0, 1), asOf)
	}
}

// Invalidate drops the checkpoint when a day at or before it changed, so
// the next Advance reseeds with the corrected history
func (t *LoadTracker) Invalidate(ctx context.Context, userID uuid.UUID, earliestChanged time.Time) error {
	unlock := t.lock(userID)
	defer unlock()

	cp, err := t.checkpoints.GetCheckpoint(ctx, userID)
	if errors.Is(err, analysis.ErrNoCheckpoint) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading checkpoint: %w", err)
	}

	if analysis.Day(earliestChanged).After(cp.LastUpdate) {
		return nil
	}

	if err := t.checkpoints.DeleteCheckpoint(ctx, userID); err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"changed":     analysis.DateKey(earliestChanged),
		"last_update": analysis.DateKey(cp.LastUpdate),
	}).Info("Invalidated load checkpoint after backfill")
	return nil
}
