// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package runstate

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/crmsync/internal/models"
)

const runPrefix = "run:"

func runKey(run *models.SyncRun) []byte {
	// Zero-padded so lexical order matches start order.
	return []byte(fmt.Sprintf("%s%020d:%s", runPrefix, run.StartedAt.UnixNano(), run.ID))
}

// SaveRun stores a finished run and prunes history beyond the limit.
// Saving the same run twice overwrites it.
func (s *Store) SaveRun(run *models.SyncRun) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(run), data)
	}); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return s.prune()
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all
// retained runs.
func (s *Store) ListRuns(limit int) ([]models.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	runs := []models.SyncRun{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks from just past the prefix.
		seek := append([]byte(runPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run models.SyncRun
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return fmt.Errorf("decode run %s: %w", it.Item().Key(), err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LastRun returns the newest run, or nil when there is none.
func (s *Store) LastRun() (*models.SyncRun, error) {
	runs, err := s.ListRuns(1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// prune deletes the oldest runs beyond historyLimit.
func (s *Store) prune() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		keys := runKeys(txn)
		excess := len(keys) - s.historyLimit
		for i := 0; i < excess; i++ {
			if err := txn.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune run history: %w", err)
	}
	return nil
}

// runKeys returns every run key, oldest first.
func runKeys(txn *badger.Txn) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(runPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}
