// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
)

const (
	defaultBatchSize  = 8
	defaultBatchDelay = 200 * time.Millisecond
)

// EventGuests is the outcome of enumerating one event's guests. Guests may
// be partial when Err is set.
type EventGuests struct {
	Event  models.EventRecord
	Guests []models.GuestRecord
	Err    error
}

// BatchCoordinator fetches guest lists for many events with bounded
// concurrency and a fixed pause between batches.
type BatchCoordinator struct {
	size  int
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatchCoordinator returns a coordinator running size events at a time
// and waiting delay between batches.
func NewBatchCoordinator(size int, delay time.Duration) *BatchCoordinator {
	if size <= 0 {
		size = defaultBatchSize
	}
	if delay < 0 {
		delay = defaultBatchDelay
	}
	return &BatchCoordinator{size: size, delay: delay, sleep: waitContext}
}

// Run enumerates guests for every event. deliver is called once per
// batch, on the calling goroutine, with results in event order. A failed
// event never affects its siblings. Run returns early only when ctx ends.
func (b *BatchCoordinator) Run(ctx context.Context, src GuestEnumerator, events []models.EventRecord, deliver func([]EventGuests)) error {
	for start := 0; start < len(events); start += b.size {
		if start > 0 && b.delay > 0 {
			if err := b.sleep(ctx, b.delay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + b.size
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]
		results := make([]EventGuests, len(batch))

		var wg sync.WaitGroup
		for i, ev := range batch {
			wg.Add(1)
			go func(i int, ev models.EventRecord) {
				defer wg.Done()
				guests, err := src.EnumerateGuests(ctx, ev.ID)
				results[i] = EventGuests{Event: ev, Guests: guests, Err: err}
			}(i, ev)
		}
		wg.Wait()

		logging.Debug().Int("batch_start", start).Int("batch_size", len(batch)).Int("total_events", len(events)).Msg("Guest batch completed")
		deliver(results)
	}
	return nil
}

func waitContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
