// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package middleware provides HTTP middleware shared outside the API package.

Compression gzips responses for clients that send Accept-Encoding: gzip.
Contact listings run to hundreds of kilobytes of JSON and shrink well.

Usage with chi:

	r.Use(middleware.Compression)

Writers come from a sync.Pool. Responses that set their own
Content-Encoding, and HEAD requests, pass through untouched.
*/
package middleware
