package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbsqlx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/threaded-comments-api/internal/config"
)

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// DB wraps the sqlx connection with transaction propagation and
// dialect-specific helpers
type DB struct {
	*sqlx.DB
	log    zerolog.Logger
	driver string
}

type txKey struct{}

// New creates a new database connection with connection pooling
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	if cfg.Driver == config.DriverSQLite {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open(cfg.Driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer; one connection also keeps
		// transactions from waiting on each other's file locks.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapper := &DB{
		DB:     db,
		log:    log.With().Str("component", "database").Logger(),
		driver: cfg.Driver,
	}

	event := wrapper.log.Info().Str("driver", cfg.Driver)
	if cfg.Driver == config.DriverSQLite {
		event = event.Str("path", cfg.Path)
	} else {
		event = event.Str("host", cfg.Host).Str("database", cfg.Name).Int("max_open_conns", cfg.MaxOpenConns)
	}
	event.Msg("Database connection established")

	return wrapper, nil
}

// Driver returns the configured driver name
func (db *DB) Driver() string {
	return db.driver
}

// Querier returns the transaction carried by ctx, or the pool when there is none
func (db *DB) Querier(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db.DB
}

// WithinTx runs fn in a transaction whose handle travels in the context
// passed to fn. Serialization failures are retried; a call made while a
// transaction is already open joins it.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return fn(ctx)
	}
	return crdbsqlx.ExecuteTx(ctx, db.DB, nil, func(tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// ShareLock returns the row-lock suffix for reads that must block
// concurrent deletes until the transaction ends. SQLite serialises
// writers, so it needs none.
func (db *DB) ShareLock() string {
	if db.driver == config.DriverPostgres {
		return " FOR SHARE"
	}
	return ""
}

// UpdateLock returns the row-lock suffix for reads that must serialise
// writers of the same row until the transaction ends
func (db *DB) UpdateLock() string {
	if db.driver == config.DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// HealthCheck verifies the database connection is healthy
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}
