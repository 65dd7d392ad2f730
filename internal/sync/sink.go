// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
)

const defaultPersistBatchSize = 100

// SinkResult summarizes one Upsert call.
type SinkResult struct {
	Written int
	Failed  int
	Errors  []error
}

// Sink writes merged contacts to the store in fixed-size batches.
type Sink struct {
	store     ContactStore
	batchSize int
}

// NewSink returns a sink writing batchSize contacts per store call.
func NewSink(store ContactStore, batchSize int) *Sink {
	if batchSize <= 0 {
		batchSize = defaultPersistBatchSize
	}
	return &Sink{store: store, batchSize: batchSize}
}

// Upsert persists contacts. Contacts without an email are counted as
// failed. A failed batch fails all of its contacts and later batches are
// still attempted.
func (s *Sink) Upsert(ctx context.Context, contacts []models.UniqueContact, syncedAt time.Time, opts models.UpsertOptions) SinkResult {
	rows := make([]models.Contact, 0, len(contacts))
	for i := range contacts {
		rows = append(rows, models.ContactFromUnique(&contacts[i], syncedAt))
	}
	return s.UpsertRows(ctx, rows, opts)
}

// UpsertRows persists prepared contact rows with the same batching and
// failure accounting as Upsert.
func (s *Sink) UpsertRows(ctx context.Context, contacts []models.Contact, opts models.UpsertOptions) SinkResult {
	var res SinkResult

	rows := make([]models.Contact, 0, len(contacts))
	missing := 0
	for i := range contacts {
		if contacts[i].Email == "" {
			missing++
			continue
		}
		rows = append(rows, contacts[i])
	}
	if missing > 0 {
		res.Failed += missing
		res.Errors = append(res.Errors, fmt.Errorf("%w: %d contacts skipped", ErrMissingEmail, missing))
		logging.Warn().Int("contacts", missing).Msg("Skipping contacts without email")
	}

	for batch, start := 1, 0; start < len(rows); batch, start = batch+1, start+s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		if err := s.store.UpsertContacts(ctx, chunk, opts); err != nil {
			res.Failed += len(chunk)
			res.Errors = append(res.Errors, &PersistenceBatchError{Batch: batch, Size: len(chunk), Err: err})
			logging.Error().Err(err).Int("batch", batch).Int("size", len(chunk)).Msg("Failed to persist contact batch")
			continue
		}
		res.Written += len(chunk)
	}

	metrics.RecordPersisted(res.Written, res.Failed)
	return res
}
