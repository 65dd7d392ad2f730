// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"context"
	"time"

	"github.com/tomtom215/crmsync/internal/models"
)

// GuestEnumerator lists the guests of one event.
type GuestEnumerator interface {
	EnumerateGuests(ctx context.Context, eventID string) ([]models.GuestRecord, error)
}

// Source is one configured calendar. *platform.Client implements it.
type Source interface {
	GuestEnumerator
	Source() string
	EnumerateEvents(ctx context.Context) ([]models.EventRecord, error)
}

// ContactStore persists contacts. Implemented by database.DB and pgstore.Store.
type ContactStore interface {
	UpsertContacts(ctx context.Context, contacts []models.Contact, opts models.UpsertOptions) error
	Ping(ctx context.Context) error
}

// RunStateStore holds the cross-process run lock and run history.
// Implemented by runstate.Store.
type RunStateStore interface {
	AcquireLock(owner string, ttl time.Duration) (bool, error)
	ReleaseLock(owner string) error
	SaveRun(run *models.SyncRun) error
}

// EventPublisher announces finished runs. Implemented by events.Publisher.
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, run *models.SyncRun) error
}
