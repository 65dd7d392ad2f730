// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
migrations.go - Versioned Schema Migrations

The contacts table is created by database_schema.go with every column the
current release needs. Migrations carry the changes made after that baseline:
  - each one is recorded in schema_migrations and runs exactly once
  - the same SQL must be valid on DuckDB and SQLite
  - GetCurrentSchemaVersion reports the highest applied version
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/crmsync/internal/logging"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int    // Unique, increasing from 1
	Name        string // Short snake_case identifier
	Description string // What the change is for
	SQL         string // One statement, portable across both drivers
}

// getMigrations returns every migration in version order.
//
// Migrations MUST be append-only - never modify or remove existing migrations
// once databases with data exist. To add one, append the next version:
//
//	{
//		Version:     2,
//		Name:        "index_contacts_updated_at",
//		Description: "Speed up sort=updated_at listings",
//		SQL:         `CREATE INDEX IF NOT EXISTS idx_contacts_updated_at ON contacts(updated_at)`,
//	},
func (db *DB) getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "index_email_classification",
			Description: "Index email_classification for personal/business filters",
			SQL:         `CREATE INDEX IF NOT EXISTS idx_contacts_classification ON contacts(email_classification)`,
		},
	}
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations executes only migrations that haven't been applied yet.
//
// For each pending migration, in order:
//  1. execute its SQL
//  2. record it in schema_migrations
//
// A failure stops the run; later migrations stay pending and are retried on
// the next open.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range db.getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}

		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("applied", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
