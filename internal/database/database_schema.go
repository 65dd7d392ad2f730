// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
database_schema.go - Database Schema Management

Tables:
  - contacts: one row per email, the persisted sync result plus pipeline stage
  - schema_migrations: applied versioned migrations (see migrations.go)

The DDL is the common subset of DuckDB and SQLite: TEXT, INTEGER, BIGINT and
TIMESTAMP columns. Maps and lists (wallet addresses, social handles,
attributed events, sources) are stored as JSON text.

Index Strategy:
DuckDB rejects ON CONFLICT DO UPDATE assignments to indexed columns, so only
columns the upsert never assigns are indexed (relationship_stage here,
email_classification in migration 1).
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

const contactsTable = `
CREATE TABLE IF NOT EXISTS contacts (
	email                TEXT PRIMARY KEY,
	identity_key         TEXT NOT NULL,
	display_name         TEXT NOT NULL DEFAULT '',
	first_name           TEXT,
	last_name            TEXT,
	email_classification TEXT NOT NULL DEFAULT 'personal',
	company              TEXT,
	phone                TEXT,
	wallet_addresses     TEXT,
	social_handles       TEXT,
	relationship_stage   TEXT NOT NULL DEFAULT 'lead',
	events_attended      INTEGER NOT NULL DEFAULT 0,
	total_spent_cents    BIGINT NOT NULL DEFAULT 0,
	attributed_events    TEXT,
	sources              TEXT,
	first_seen_at        TIMESTAMP,
	last_synced_at       TIMESTAMP,
	created_at           TIMESTAMP NOT NULL,
	updated_at           TIMESTAMP NOT NULL
)`

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	applied_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range []string{contactsTable, schemaMigrationsTable} {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes for listing filters
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_contacts_stage ON contacts(relationship_stage)`,
	}
	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
