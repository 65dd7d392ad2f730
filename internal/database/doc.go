// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package database is the embedded contact store.
//
// # Overview
//
// One contacts table keyed by email holds the persisted result of every sync
// run plus the pipeline stage operators assign by hand. The same SQL runs on
// two embedded engines selected by config:
//
//   - duckdb (default): github.com/duckdb/duckdb-go/v2, CGO
//   - sqlite: modernc.org/sqlite, pure Go
//
// # Files
//
//   - database.go: lifecycle (New, Ping, Close)
//   - database_connection.go: driver DSNs and connection pool settings
//   - database_schema.go: table and index creation
//   - migrations.go: versioned, append-only schema migrations
//   - contacts.go: batch upsert, single reads and stage updates
//   - contacts_query.go: filtered listing and dashboard counts
//   - query/: WHERE clause builder shared with the PostgreSQL store
//
// # Upsert Semantics
//
// UpsertContacts writes a batch in one transaction. Present values replace
// stored ones; absent optional values (NULL) never erase what is stored.
// The relationship stage is only written on insert. With
// models.UpsertOptions.PreserveStats the event counters, attributed events
// and sources of an existing row are kept, which is what CSV imports use.
//
// # Thread Safety
//
// DB is safe for concurrent use. SQLite is limited to one open connection so
// that writers never see SQLITE_BUSY.
package database
