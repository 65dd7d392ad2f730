// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package services adapts crmsync components to suture's Serve(ctx) error
lifecycle.

HTTPServerService wraps an *http.Server: ListenAndServe runs in a goroutine
and context cancellation triggers Shutdown with a bounded timeout.

SchedulerService wraps the sync manager's Start/Stop schedule: Start on
entry, Stop once the context is canceled.

Components that already expose Serve(ctx) error, such as runstate.Compactor
and events.EmbeddedServer, are added to the tree directly.
*/
package services
