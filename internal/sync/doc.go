// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package sync runs contact synchronization from the event platform into the
contact store.

A run moves through these states:

	Idle -> FetchingEvents -> FetchingGuests -> Merging -> Persisting -> Done
	                                                                  \-> Failed

Sources are processed one after another. For each source the event list
is enumerated, then the BatchCoordinator fetches guest lists in small
concurrent batches with a pause between batches, delivering each finished
batch to a single Merger shared by every source of the run. Once all
sources are drained, the Sink upserts the merged contacts in fixed-size
batches.

Failures are contained where they happen: one page, one event, one
persistence batch. They are counted into the SyncResult and the run goes
on. Only configuration problems (no enabled source, unreachable store)
and a run already in progress stop a run before it starts.

Runs are serialized by an in-process mutex and, when a run state store is
configured, by a TTL lock shared with other processes using the same
state directory.
*/
package sync
