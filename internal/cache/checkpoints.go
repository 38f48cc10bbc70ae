package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/store"
)

const (
	checkpointKeyPrefix = "load_checkpoint:"
	dateLayout          = "2006-01-02"

	fieldCTL        = "ctl"
	fieldATL        = "atl"
	fieldLastUpdate = "last_update"
)

// CheckpointStore keeps one hash per user holding ctl, atl and last_update
type CheckpointStore struct {
	client redis.UniversalClient
}

// NewCheckpointStore creates a store on an existing client
func NewCheckpointStore(client redis.UniversalClient) *CheckpointStore {
	return &CheckpointStore{client: client}
}

func checkpointKey(userID uuid.UUID) string {
	return checkpointKeyPrefix + userID.String()
}

// GetCheckpoint retrieves the stored load checkpoint for a user
func (s *CheckpointStore) GetCheckpoint(ctx context.Context, userID uuid.UUID) (*store.LoadCheckpoint, error) {
	fields, err := s.client.HGetAll(ctx, checkpointKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	if len(fields) == 0 {
		return nil, store.ErrNoCheckpoint
	}
	return parseCheckpoint(userID, fields)
}

// SaveCheckpoint writes cp inside WATCH/MULTI only if the stored last_update
// still equals prev (nil: no checkpoint may exist). A lost race or a stale
// prev returns store.ErrCheckpointConflict
func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, cp store.LoadCheckpoint, prev *time.Time) error {
	key := checkpointKey(cp.UserID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldLastUpdate).Result()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists = false
		} else if err != nil {
			return err
		}

		switch {
		case prev == nil && exists:
			return store.ErrCheckpointConflict
		case prev != nil && (!exists || current != prev.Format(dateLayout)):
			return store.ErrCheckpointConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				fieldCTL:        strconv.FormatFloat(cp.CTL, 'g', -1, 64),
				fieldATL:        strconv.FormatFloat(cp.ATL, 'g', -1, 64),
				fieldLastUpdate: cp.LastUpdate.Format(dateLayout),
			})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrCheckpointConflict
	}
	return err
}

// DeleteCheckpoint drops the user's checkpoint so the next advance reseeds
func (s *CheckpointStore) DeleteCheckpoint(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, checkpointKey(userID)).Err()
}

func parseCheckpoint(userID uuid.UUID, fields map[string]string) (*store.LoadCheckpoint, error) {
	ctl, err := strconv.ParseFloat(fields[fieldCTL], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing ctl: %w", err)
	}
	atl, err := strconv.ParseFloat(fields[fieldATL], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing atl: %w", err)
	}
	lastUpdate, err := time.Parse(dateLayout, fields[fieldLastUpdate])
	if err != nil {
		return nil, fmt.Errorf("parsing last_update: %w", err)
	}
	return &store.LoadCheckpoint{
		UserID:     userID,
		CTL:        ctl,
		ATL:        atl,
		LastUpdate: lastUpdate,
	}, nil
}
