package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

// TimeSeriesSource supplies a user's daily records. Implementations may
// return days in any order
type TimeSeriesSource interface {
	// FetchRange returns days with start <= date <= end
	FetchRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]store.DailyMetrics, error)
	// LatestDate returns store.ErrNoData when the user has no days
	LatestDate(ctx context.Context, userID uuid.UUID) (time.Time, error)
	// EarliestDate returns store.ErrNoData when the user has no days
	EarliestDate(ctx context.Context, userID uuid.UUID) (time.Time, error)
}

// CheckpointStore persists LoadModel checkpoints with compare-and-swap on
// LastUpdate. SaveCheckpoint with a nil prev creates; otherwise it only
// succeeds if the stored LastUpdate equals *prev
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, userID uuid.UUID) (*analysis.LoadCheckpoint, error)
	SaveCheckpoint(ctx context.Context, cp analysis.LoadCheckpoint, prev *time.Time) error
	DeleteCheckpoint(ctx context.Context, userID uuid.UUID) error
}

// DaySink accepts imported days
type DaySink interface {
	UpsertDailyMetrics(ctx context.Context, userID uuid.UUID, days []store.DailyMetrics) error
}

var (
	_ TimeSeriesSource = (*store.DB)(nil)
	_ CheckpointStore  = (*store.DB)(nil)
	_ DaySink          = (*store.DB)(nil)
	_ ImportRecorder   = (*store.DB)(nil)
)
