// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package testinfra provides infrastructure for integration tests.
//
// Everything here is behind the "integration" build tag:
//
//	go test -tags integration ./...
//
// # PostgreSQL
//
// NewPostgresContainer starts a PostgreSQL container through
// testcontainers-go and returns its DSN for pgstore.Open.
//
// # Mock Platform
//
// MockPlatform serves the event platform's paginated list endpoints from
// memory with per-key calendars, request capture and scripted 429s, so a
// full sync can run against a real store without network access.
//
// # CI Considerations
//
// Container tests call SkipIfNoDocker and are skipped when no Docker
// daemon is reachable. The first run pulls the image.
package testinfra
