package store

import (
	"database/sql"
	"fmt"
)

// NewTestDB creates a migrated in-memory database.
// This is only intended for use in tests
func NewTestDB() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening test database: %w", err)
	}

	// Each connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{sqlDB}, nil
}
