package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// UpsertDailyMetrics inserts or replaces days for a user in one transaction.
// A re-imported day replaces the stored row
func (db *DB) UpsertDailyMetrics(ctx context.Context, userID uuid.UUID, days []DailyMetrics) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_metrics (
			user_id, date, hrv, sleep_hours, energy_charged, energy_drained,
			resting_hr, steps, intensity_minutes, training_load, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, date) DO UPDATE SET
			hrv = excluded.hrv,
			sleep_hours = excluded.sleep_hours,
			energy_charged = excluded.energy_charged,
			energy_drained = excluded.energy_drained,
			resting_hr = excluded.resting_hr,
			steps = excluded.steps,
			intensity_minutes = excluded.intensity_minutes,
			training_load = excluded.training_load,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		_, err := stmt.ExecContext(ctx,
			userID.String(), d.Date.Format(dateLayout),
			d.HRV, d.SleepHours, d.EnergyCharged, d.EnergyDrained,
			d.RestingHR, d.Steps, d.IntensityMinutes, d.TrainingLoad,
		)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", d.Date.Format(dateLayout), err)
		}
	}

	return tx.Commit()
}

// FetchRange returns the user's days with start <= date <= end, newest first
func (db *DB) FetchRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]DailyMetrics, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, hrv, sleep_hours, energy_charged, energy_drained,
			resting_hr, steps, intensity_minutes, training_load
		FROM daily_metrics
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC
	`, userID.String(), start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDailyMetrics(rows)
}

// LatestDate returns the most recent stored day for the user
func (db *DB) LatestDate(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	return db.boundaryDate(ctx, `SELECT MAX(date) FROM daily_metrics WHERE user_id = ?`, userID)
}

// EarliestDate returns the first stored day for the user
func (db *DB) EarliestDate(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	return db.boundaryDate(ctx, `SELECT MIN(date) FROM daily_metrics WHERE user_id = ?`, userID)
}

func (db *DB) boundaryDate(ctx context.Context, query string, userID uuid.UUID) (time.Time, error) {
	var date sql.NullString
	if err := db.QueryRowContext(ctx, query, userID.String()).Scan(&date); err != nil {
		return time.Time{}, err
	}
	if !date.Valid {
		return time.Time{}, ErrNoData
	}
	return parseDate(date.String)
}

// CountDailyMetrics returns how many days are stored for the user
func (db *DB) CountDailyMetrics(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM daily_metrics WHERE user_id = ?
	`, userID.String()).Scan(&count)
	return count, err
}

func scanDailyMetrics(rows *sql.Rows) ([]DailyMetrics, error) {
	var days []DailyMetrics
	for rows.Next() {
		var d DailyMetrics
		var date string
		err := rows.Scan(
			&date, &d.HRV, &d.SleepHours, &d.EnergyCharged, &d.EnergyDrained,
			&d.RestingHR, &d.Steps, &d.IntensityMinutes, &d.TrainingLoad,
		)
		if err != nil {
			return nil, err
		}
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}
