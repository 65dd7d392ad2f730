// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package cache provides a small thread-safe in-memory cache with TTL expiry.

The API uses it for aggregate contact statistics, which are expensive on
large stores and only change when a sync run, a CSV import or a stage update
writes contacts. Writers call Clear after they finish.

Usage:

	stats := cache.New[*models.ContactStats](time.Minute)
	if s, ok := stats.Get("contacts:stats"); ok {
	    return s
	}
	s, err := store.Stats(ctx)
	stats.Set("contacts:stats", s)

Expired entries are dropped lazily on Get and in bulk by Cleanup. There is
no background goroutine, so an unused cache holds no resources.
*/
package cache
