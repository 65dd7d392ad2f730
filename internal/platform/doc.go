// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package platform is the client for the external event platform.

One Client serves one source (one API key). It exposes three operations:

  - FetchPage: a single cursor-paginated GET with retry
  - EnumerateEvents: every event of the source's calendar
  - EnumerateGuests: every guest of one event

Resilience:

  - HTTP 429 is retried with exponential backoff (1s, 2s, 4s, ... capped at 30s)
    up to RetryPolicy.MaxAttempts; a Retry-After header below the cap replaces
    the computed delay. Exhaustion returns *RateLimitExhaustedError.
  - Transport failures and 502/503/504 follow the same schedule up to
    RetryPolicy.NetworkAttempts and then return *NetworkError.
  - Any other non-2xx status returns *UpstreamError immediately.
  - Requests are paced by a token bucket (golang.org/x/time/rate) and pass
    through a per-source circuit breaker (sony/gobreaker). An open breaker
    returns ErrCircuitOpen without touching the network.

Raw payloads never leave this package: entries are normalized into
models.EventRecord and models.GuestRecord at the boundary.
*/
package platform
