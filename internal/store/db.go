package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNoData is returned when a user has no stored days
var ErrNoData = errors.New("no daily metrics stored")

// ErrNoCheckpoint is returned when no load checkpoint is stored for a user
var ErrNoCheckpoint = errors.New("no load checkpoint stored")

// ErrCheckpointConflict is returned when a checkpoint changed between read and write
var ErrCheckpointConflict = errors.New("load checkpoint was modified concurrently")

// ErrNoImport is returned when nothing has been imported for a user
var ErrNoImport = errors.New("no import recorded")

// DB wraps the SQLite connection holding daily metrics and load checkpoints
type DB struct {
	*sql.DB
}

// Open opens the SQLite database at path, creating it if necessary.
// An empty path uses ~/.garmin-insights/data.db
func Open(path string) (*DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("getting db path: %w", err)
		}
		path = p
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Checkpoint CAS relies on a single writer connection
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Run migrations
	if err := migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &DB{sqlDB}, nil
}

// DefaultPath returns the path to the SQLite database file
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".garmin-insights", "data.db"), nil
}
