package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/logging"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

var testUser = uuid.MustParse("6f1c2b0e-4a7d-4d8e-9b3f-2c5e8a1d7f40")

func floatP(v float64) *float64 { return &v }
func intP(v int) *int           { return &v }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// series builds n consecutive days ending at end, oldest first
func series(end time.Time, n int, fill func(i int, d *store.DailyMetrics)) []store.DailyMetrics {
	out := make([]store.DailyMetrics, 0, n)
	for k := n - 1; k >= 0; k-- {
		d := store.DailyMetrics{Date: end.AddDate(0, 0, -k)}
		fill(k, &d)
		out = append(out, d)
	}
	return out
}

func loadDays(end time.Time, n int, load float64) []store.DailyMetrics {
	return series(end, n, func(_ int, d *store.DailyMetrics) {
		d.TrainingLoad = floatP(load)
	})
}

// fakeSource is an in-memory TimeSeriesSource. FetchRange returns days in
// map order, so callers can't rely on sorting.
type fakeSource struct {
	mu      sync.Mutex
	days    map[string]store.DailyMetrics
	err     error
	fetches int
}

func newFakeSource(days ...store.DailyMetrics) *fakeSource {
	s := &fakeSource{days: make(map[string]store.DailyMetrics)}
	s.add(days...)
	return s
}

func (s *fakeSource) add(days ...store.DailyMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range days {
		s.days[analysis.DateKey(d.Date)] = d
	}
}

func (s *fakeSource) FetchRange(_ context.Context, _ uuid.UUID, start, end time.Time) ([]store.DailyMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	var out []store.DailyMetrics
	for _, d := range s.days {
		if !d.Date.Before(start) && !d.Date.After(end) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeSource) LatestDate(_ context.Context, _ uuid.UUID) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return time.Time{}, s.err
	}
	var latest time.Time
	for _, d := range s.days {
		if d.Date.After(latest) {
			latest = d.Date
		}
	}
	if latest.IsZero() {
		return time.Time{}, store.ErrNoData
	}
	return latest, nil
}

func (s *fakeSource) EarliestDate(_ context.Context, _ uuid.UUID) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return time.Time{}, s.err
	}
	var earliest time.Time
	for _, d := range s.days {
		if earliest.IsZero() || d.Date.Before(earliest) {
			earliest = d.Date
		}
	}
	if earliest.IsZero() {
		return time.Time{}, store.ErrNoData
	}
	return earliest, nil
}

// fakeCheckpoints is an in-memory CheckpointStore. conflicts makes that many
// saves fail with ErrCheckpointConflict.
type fakeCheckpoints struct {
	mu        sync.Mutex
	byUser    map[uuid.UUID]analysis.LoadCheckpoint
	conflicts int
	saves     int
	deletes   int
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{byUser: make(map[uuid.UUID]analysis.LoadCheckpoint)}
}

func (c *fakeCheckpoints) GetCheckpoint(_ context.Context, userID uuid.UUID) (*analysis.LoadCheckpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp, ok := c.byUser[userID]
	if !ok {
		return nil, analysis.ErrNoCheckpoint
	}
	return &cp, nil
}

func (c *fakeCheckpoints) SaveCheckpoint(_ context.Context, cp analysis.LoadCheckpoint, prev *time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conflicts > 0 {
		c.conflicts--
		return analysis.ErrCheckpointConflict
	}
	cur, ok := c.byUser[cp.UserID]
	switch {
	case prev == nil && ok:
		return analysis.ErrCheckpointConflict
	case prev != nil && (!ok || !cur.LastUpdate.Equal(*prev)):
		return analysis.ErrCheckpointConflict
	}
	c.byUser[cp.UserID] = cp
	c.saves++
	return nil
}

func (c *fakeCheckpoints) DeleteCheckpoint(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byUser, userID)
	c.deletes++
	return nil
}

func (c *fakeCheckpoints) get(userID uuid.UUID) (analysis.LoadCheckpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp, ok := c.byUser[userID]
	return cp, ok
}

// replayState runs a fresh model over days from `from` through `through`
func replayState(days []store.DailyMetrics, from, through time.Time) analysis.LoadState {
	model := analysis.NewLoadModel(0, 0)
	model.Replay(analysis.DailyLoads(days), from, through)
	return model.State()
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTracker(source TimeSeriesSource, checkpoints CheckpointStore, seedDays int) *LoadTracker {
	return NewLoadTracker(source, checkpoints, seedDays, logging.Discard())
}
