// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSources is returned when no source has an API key configured.
	ErrNoSources = errors.New("no platform sources configured")

	// ErrStoreUnavailable is returned when the contact store does not answer a ping.
	ErrStoreUnavailable = errors.New("contact store unavailable")

	// ErrSyncInProgress is returned when another run holds the run lock.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMissingEmail marks merged contacts that cannot be stored because no email was seen.
	ErrMissingEmail = errors.New("contact has no email")
)

// PersistenceBatchError reports one failed store batch. Every contact in
// the batch is counted as failed.
type PersistenceBatchError struct {
	Batch int // 1-based
	Size  int
	Err   error
}

func (e *PersistenceBatchError) Error() string {
	return fmt.Sprintf("persist batch %d (%d contacts): %v", e.Batch, e.Size, e.Err)
}

func (e *PersistenceBatchError) Unwrap() error { return e.Err }
