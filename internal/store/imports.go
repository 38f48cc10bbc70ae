package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// RecordImport stores rec as the user's most recent import
func (db *DB) RecordImport(ctx context.Context, rec ImportRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO imports (user_id, source, days, earliest, latest, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			source = excluded.source,
			days = excluded.days,
			earliest = excluded.earliest,
			latest = excluded.latest,
			imported_at = excluded.imported_at
	`, rec.UserID.String(), rec.Source, rec.Days,
		rec.Earliest.Format(dateLayout), rec.Latest.Format(dateLayout),
		rec.ImportedAt.UTC().Format(time.RFC3339))
	return err
}

// LastImport returns the user's most recent import, or ErrNoImport
func (db *DB) LastImport(ctx context.Context, userID uuid.UUID) (*ImportRecord, error) {
	rec := ImportRecord{UserID: userID}
	var earliest, latest, importedAt string
	err := db.QueryRowContext(ctx, `
		SELECT source, days, earliest, latest, imported_at FROM imports WHERE user_id = ?
	`, userID.String()).Scan(&rec.Source, &rec.Days, &earliest, &latest, &importedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoImport
	}
	if err != nil {
		return nil, err
	}

	if rec.Earliest, err = parseDate(earliest); err != nil {
		return nil, err
	}
	if rec.Latest, err = parseDate(latest); err != nil {
		return nil, err
	}
	if rec.ImportedAt, err = time.Parse(time.RFC3339, importedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
