package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// GetCheckpoint retrieves the stored load checkpoint for a user
func (db *DB) GetCheckpoint(ctx context.Context, userID uuid.UUID) (*LoadCheckpoint, error) {
	cp := LoadCheckpoint{UserID: userID}
	var lastUpdate string
	err := db.QueryRowContext(ctx, `
		SELECT ctl, atl, last_update FROM load_checkpoints WHERE user_id = ?
	`, userID.String()).Scan(&cp.CTL, &cp.ATL, &lastUpdate)
	if err == sql.ErrNoRows {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}
	if cp.LastUpdate, err = parseDate(lastUpdate); err != nil {
		return nil, err
	}
	return &cp, nil
}

// SaveCheckpoint writes cp only if the stored checkpoint still has
// last_update prev. A nil prev means no checkpoint may exist yet.
// Returns ErrCheckpointConflict when another writer got there first
func (db *DB) SaveCheckpoint(ctx context.Context, cp LoadCheckpoint, prev *time.Time) error {
	var (
		result sql.Result
		err    error
	)
	if prev == nil {
		result, err = db.ExecContext(ctx, `
			INSERT INTO load_checkpoints (user_id, ctl, atl, last_update, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(user_id) DO NOTHING
		`, cp.UserID.String(), cp.CTL, cp.ATL, cp.LastUpdate.Format(dateLayout))
	} else {
		result, err = db.ExecContext(ctx, `
			UPDATE load_checkpoints
			SET ctl = ?, atl = ?, last_update = ?, updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ? AND last_update = ?
		`, cp.CTL, cp.ATL, cp.LastUpdate.Format(dateLayout), cp.UserID.String(), prev.Format(dateLayout))
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCheckpointConflict
	}
	return nil
}

// DeleteCheckpoint drops the user's checkpoint so the next advance reseeds
func (db *DB) DeleteCheckpoint(ctx context.Context, userID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM load_checkpoints WHERE user_id = ?
	`, userID.String())
	return err
}
