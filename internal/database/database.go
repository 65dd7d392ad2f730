// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/logging"
)

const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// DB wraps the embedded SQL connection and provides contact data access.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	driver string
	now    func() time.Time
}

// New opens the configured embedded database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverDuckDB
	}
	if driver != DriverDuckDB && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	if !isMemoryPath(cfg.Path) {
		// Ensure parent directory exists for database file
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open(driver, connString(driver, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, driver: driver, now: time.Now}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("driver", driver).Str("path", cfg.Path).Msg("Contact database ready")
	return db, nil
}

// Driver returns the engine name ("duckdb" or "sqlite").
func (db *DB) Driver() string {
	return db.driver
}

// Conn returns the underlying SQL connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints DuckDB and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.driver == DriverDuckDB && !isMemoryPath(db.cfg.Path) {
		// Flush the WAL so the next start does not replay it.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// initialize creates tables and runs migrations.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	if err := db.createIndexes(); err != nil {
		return err
	}
	return db.runVersionedMigrations()
}

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:"
}
