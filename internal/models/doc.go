// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package models defines the records that flow through a sync run and the
// shapes returned by the HTTP API.
//
// Pipeline records, in order:
//
//	EventRecord   one event of one source, fetched per run, never stored
//	GuestRecord   one attendee sighting, normalized at the platform boundary
//	UniqueContact one merged person, owned by the run's Merger
//	Contact       the persisted row, keyed by email
//	SyncResult    per-run summary returned to the caller
//
// Money is carried as integer cents throughout.
package models
