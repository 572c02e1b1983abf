// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/config"
	"github.com/threaded-comments-api/internal/database"
)

// Config returns a sqlite configuration rooted in a per-test directory
func Config(t testing.TB) *config.DatabaseConfig {
	t.Helper()
	return &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "comments.db"),
	}
}

// New opens a fresh database with all migrations applied. It is closed
// when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.New(Config(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
