// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package pgstore is the PostgreSQL contact store, selected with
// database.driver=postgres.
//
// It exposes the same operations as the embedded database package
// (UpsertContacts, GetContact, UpdateStage, ListContacts, CountByStage,
// Stats, Ping, Close) over a pgx connection pool, so the sync sink and the
// HTTP API work against either. Maps and lists are stored as JSONB and the
// schema is applied from the embedded schema.sql on Open.
//
// Integration tests run against a PostgreSQL container and need the
// "integration" build tag and a Docker daemon.
package pgstore
