// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
database_connection.go - Driver Selection and Connection Pool

DuckDB:
  - Registered as "duckdb" by github.com/duckdb/duckdb-go/v2
  - Tuned through the DSN: threads, max_memory, access_mode
  - Extension autoload disabled; the contacts schema needs none

SQLite:
  - Registered as "sqlite" by modernc.org/sqlite (no CGO)
  - Pragmas through _pragma DSN parameters: WAL journal, busy timeout, foreign keys
  - One open connection: writes are serialized by the pool, and an in-memory
    database lives exactly as long as that connection

Connection Pool Configuration:
  - MaxOpenConns: NumCPU for DuckDB, 1 for SQLite
  - MaxIdleConns: 2
  - ConnMaxLifetime: 1 hour to prevent stale connections
  - ConnMaxIdleTime: 5 minutes, disabled for in-memory SQLite
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/crmsync/internal/config"
)

// connString builds the DSN for driver.
func connString(driver string, cfg *config.DatabaseConfig) string {
	switch driver {
	case DriverSQLite:
		path := cfg.Path
		if isMemoryPath(path) {
			path = ":memory:"
		}
		return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	default:
		numThreads := cfg.Threads
		if numThreads <= 0 {
			numThreads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		path := cfg.Path
		if isMemoryPath(path) {
			path = ""
		}
		return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			path, numThreads, maxMemory)
	}
}

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() {
	if db.driver == DriverSQLite {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		if isMemoryPath(db.cfg.Path) {
			db.conn.SetConnMaxLifetime(0)
			db.conn.SetConnMaxIdleTime(0)
			return
		}
	} else {
		db.conn.SetMaxOpenConns(runtime.NumCPU())
		db.conn.SetMaxIdleConns(2)
	}
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}
