// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package runstate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/logging"
)

const defaultHistoryLimit = 100

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("run state store is closed")

// Store holds the run lock and run history.
type Store struct {
	db           *badger.DB
	historyLimit int
	inMemory     bool

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the store described by cfg.
func Open(cfg *config.RunStateConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("history_limit", limit).
		Msg("Run state store opened")
	return &Store{db: db, historyLimit: limit, inMemory: cfg.InMemory}, nil
}

// Close closes the underlying database. It is safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// check returns ErrClosed once Close has been called. Callers hold s.mu.RLock.
func (s *Store) check() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}
