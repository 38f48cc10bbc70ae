package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Daily wellness telemetry, one row per user per calendar day
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			hrv REAL,
			sleep_hours REAL,
			energy_charged REAL,
			energy_drained REAL,
			resting_hr REAL,
			steps INTEGER,
			intensity_minutes INTEGER,
			training_load REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, date)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_daily_metrics_date ON daily_metrics(date)`,

		// Carried-forward CTL/ATL, valid through last_update inclusive
		`CREATE TABLE IF NOT EXISTS load_checkpoints (
			user_id TEXT PRIMARY KEY,
			ctl REAL NOT NULL,
			atl REAL NOT NULL,
			last_update TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Most recent import per user
		`CREATE TABLE IF NOT EXISTS imports (
			user_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			days INTEGER NOT NULL,
			earliest TEXT NOT NULL,
			latest TEXT NOT NULL,
			imported_at TEXT NOT NULL
		)`,

		// Replaced by imports, which is kept per user
		`DROP TABLE IF EXISTS sync_state`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
