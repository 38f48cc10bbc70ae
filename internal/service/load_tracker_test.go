package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

func TestLoadTrackerNoData(t *testing.T) {
	cps := newFakeCheckpoints()
	tracker := newTestTracker(newFakeSource(), cps, 0)

	state, err := tracker.Advance(context.Background(), testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, analysis.NewLoadModel(0, 0).State(), state)
	assert.Nil(t, state.ACWR)
	assert.Equal(t, analysis.RiskUnknown, state.RiskZone)

	_, ok := cps.get(testUser)
	assert.False(t, ok, "no checkpoint should be written without data")
}

func TestLoadTrackerSeedsAndAdvances(t *testing.T) {
	ctx := context.Background()
	days := loadDays(date("2024-03-10"), 10, 50)
	seedStart := days[0].Date
	src := newFakeSource(days...)
	cps := newFakeCheckpoints()
	tracker := newTestTracker(src, cps, 0)

	state, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, seedStart, date("2024-03-10")), state)

	cp, ok := cps.get(testUser)
	require.True(t, ok)
	assert.Equal(t, date("2024-03-10"), cp.LastUpdate)
	assert.Equal(t, 1, cps.saves)

	// Asking again without new data doesn't rewrite the checkpoint
	again, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, state, again)
	assert.Equal(t, 1, cps.saves)

	newer := loadDays(date("2024-03-12"), 2, 80)
	src.add(newer...)
	days = append(days, newer...)

	state, err = tracker.Advance(ctx, testUser, date("2024-03-12"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, seedStart, date("2024-03-12")), state)

	cp, _ = cps.get(testUser)
	assert.Equal(t, date("2024-03-12"), cp.LastUpdate)
	assert.Equal(t, 2, cps.saves)
}

func TestLoadTrackerProjectsPastLatestData(t *testing.T) {
	ctx := context.Background()
	days := loadDays(date("2024-03-10"), 10, 50)
	seedStart := days[0].Date
	src := newFakeSource(days...)
	cps := newFakeCheckpoints()
	tracker := newTestTracker(src, cps, 0)

	state, err := tracker.Advance(ctx, testUser, date("2024-03-14"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, seedStart, date("2024-03-14")), state)

	// Only days with data are persisted
	cp, ok := cps.get(testUser)
	require.True(t, ok)
	assert.Equal(t, date("2024-03-10"), cp.LastUpdate)

	// A day that arrives later is still counted
	late := loadDays(date("2024-03-11"), 1, 120)
	src.add(late...)
	days = append(days, late...)

	state, err = tracker.Advance(ctx, testUser, date("2024-03-14"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, seedStart, date("2024-03-14")), state)

	cp, _ = cps.get(testUser)
	assert.Equal(t, date("2024-03-11"), cp.LastUpdate)
}

func TestLoadTrackerHistoricalQuery(t *testing.T) {
	ctx := context.Background()

	days := loadDays(date("2024-03-10"), 40, 30)
	src := newFakeSource(days...)
	cps := newFakeCheckpoints()
	tracker := newTestTracker(src, cps, 0)

	_, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)
	saves := cps.saves

	state, err := tracker.Advance(ctx, testUser, date("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-03-01")), state)

	cp, _ := cps.get(testUser)
	assert.Equal(t, date("2024-03-10"), cp.LastUpdate, "historical queries must not move the checkpoint")
	assert.Equal(t, saves, cps.saves)
}

func TestLoadTrackerReplaysFullHistory(t *testing.T) {
	ctx := context.Background()

	// Well past any 180-day window, so a truncated replay would lag
	days := loadDays(date("2024-03-10"), 400, 100)
	src := newFakeSource(days...)
	tracker := newTestTracker(src, newFakeCheckpoints(), 0)

	state, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, state.CTL)
	assert.Equal(t, 100.0, state.ATL)
	assert.Equal(t, 0.0, state.TSB)
	require.NotNil(t, state.ACWR)
	assert.Equal(t, 1.0, *state.ACWR)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-03-10")), state)

	historical, err := tracker.Advance(ctx, testUser, date("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-01-10")), historical)
	assert.Equal(t, 100.0, historical.CTL)
}

func TestLoadTrackerSeedCap(t *testing.T) {
	days := loadDays(date("2024-03-10"), 30, 100)
	tracker := newTestTracker(newFakeSource(days...), newFakeCheckpoints(), 7)

	state, err := tracker.Advance(context.Background(), testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, date("2024-03-04"), date("2024-03-10")), state)

	// A cap reaching past the first stored day is the full history
	tracker = newTestTracker(newFakeSource(days...), newFakeCheckpoints(), 365)
	state, err = tracker.Advance(context.Background(), testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-03-10")), state)
}

func TestLoadTrackerRetriesConflicts(t *testing.T) {
	ctx := context.Background()
	days := loadDays(date("2024-03-10"), 10, 50)

	cps := newFakeCheckpoints()
	cps.conflicts = MaxCheckpointRetries - 1
	tracker := newTestTracker(newFakeSource(days...), cps, 0)

	state, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-03-10")), state)
	assert.Equal(t, 1, cps.saves)

	cps = newFakeCheckpoints()
	cps.conflicts = MaxCheckpointRetries
	tracker = newTestTracker(newFakeSource(days...), cps, 0)

	_, err = tracker.Advance(ctx, testUser, date("2024-03-10"))
	assert.ErrorIs(t, err, analysis.ErrCheckpointConflict)
	assert.Equal(t, 0, cps.saves)
}

func TestLoadTrackerSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := newFakeSource(loadDays(date("2024-03-10"), 3, 10)...)
	src.err = boom

	_, err := newTestTracker(src, newFakeCheckpoints(), 0).Advance(context.Background(), testUser, date("2024-03-10"))
	assert.ErrorIs(t, err, boom)
}

func TestLoadTrackerConcurrentAdvance(t *testing.T) {
	days := loadDays(date("2024-03-10"), 20, 40)
	cps := newFakeCheckpoints()
	tracker := newTestTracker(newFakeSource(days...), cps, 0)
	want := replayState(days, days[0].Date, date("2024-03-10"))

	const workers = 8
	var wg sync.WaitGroup
	states := make([]analysis.LoadState, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i], errs[i] = tracker.Advance(context.Background(), testUser, date("2024-03-10"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, states[i])
	}
	assert.Equal(t, 1, cps.saves)
}

func TestLoadTrackerInvalidate(t *testing.T) {
	ctx := context.Background()
	cps := newFakeCheckpoints()
	tracker := newTestTracker(newFakeSource(loadDays(date("2024-03-10"), 10, 50)...), cps, 0)

	// Nothing to invalidate yet
	require.NoError(t, tracker.Invalidate(ctx, testUser, date("2024-03-01")))
	assert.Equal(t, 0, cps.deletes)

	_, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)

	require.NoError(t, tracker.Invalidate(ctx, testUser, date("2024-03-11")))
	_, ok := cps.get(testUser)
	assert.True(t, ok, "days after the checkpoint leave it in place")

	require.NoError(t, tracker.Invalidate(ctx, testUser, date("2024-03-10")))
	_, ok = cps.get(testUser)
	assert.False(t, ok, "a change on the checkpoint day drops it")
}

func TestLoadTrackerWithSQLite(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	days := loadDays(date("2024-03-10"), 10, 50)
	require.NoError(t, db.UpsertDailyMetrics(ctx, testUser, days))

	tracker := newTestTracker(db, db, 0)
	state, err := tracker.Advance(ctx, testUser, date("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-03-10")), state)

	cp, err := db.GetCheckpoint(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, cp.LastUpdate.Equal(date("2024-03-10")))

	more := []store.DailyMetrics{{Date: date("2024-03-11"), TrainingLoad: floatP(90)}}
	require.NoError(t, db.UpsertDailyMetrics(ctx, testUser, more))
	days = append(days, more...)

	state, err = tracker.Advance(ctx, testUser, date("2024-03-11"))
	require.NoError(t, err)
	assert.Equal(t, replayState(days, days[0].Date, date("2024-03-11")), state)
}
