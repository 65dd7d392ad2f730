// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package runstate

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/crmsync/internal/logging"
)

const (
	defaultCompactInterval = 10 * time.Minute
	gcDiscardRatio         = 0.5
)

// Compactor runs BadgerDB value log garbage collection on an interval.
// It implements suture.Service.
//
// The lock key is rewritten on every run and history entries are pruned
// past HistoryLimit, so the value log accumulates stale entries that
// badger only reclaims when asked. Each tick calls RunGC, which rewrites
// files until less than gcDiscardRatio of a file can be reclaimed.
type Compactor struct {
	store    *Store
	interval time.Duration
}

// NewCompactor creates a compactor for store. interval <= 0 uses 10 minutes.
func NewCompactor(store *Store, interval time.Duration) *Compactor {
	if interval <= 0 {
		interval = defaultCompactInterval
	}
	return &Compactor{store: store, interval: interval}
}

// Serve runs until ctx is done.
func (c *Compactor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.store.RunGC(); err != nil {
				logging.Error().Err(err).Msg("Run state GC error")
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *Compactor) String() string {
	return "runstate-compactor"
}

// RunGC rewrites value log files until nothing more can be reclaimed.
// It is a no-op for in-memory stores.
func (s *Store) RunGC() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}
	if s.inMemory {
		return nil
	}

	start := time.Now()
	rewrites := 0
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return err
		}
		rewrites++
	}
	if rewrites > 0 {
		logging.Info().Int("rewrites", rewrites).Dur("duration", time.Since(start)).Msg("Run state GC reclaimed space")
	}
	return nil
}
