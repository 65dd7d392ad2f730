// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package runstate keeps sync run coordination state in BadgerDB.
//
// # Components
//
//   - Run lock: a single key written with a TTL. A run that crashes without
//     releasing it blocks new runs for at most the TTL.
//   - Run history: one JSON record per finished run, keyed by start time so
//     that a reverse iteration yields newest first. Only the newest
//     HistoryLimit records are kept.
//   - Compactor: periodic value log GC, run as a supervised service.
//
// # Key Layout
//
//	lock:sync                      -> owner run ID (TTL)
//	run:<start unix nanos>:<id>    -> models.SyncRun JSON
//
// An in-memory store (RunStateConfig.InMemory) behaves the same but is lost
// on restart; tests and single-shot CLI runs use it.
package runstate
