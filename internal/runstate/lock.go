// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package runstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/crmsync/internal/logging"
)

const (
	lockKey        = "lock:sync"
	defaultLockTTL = 30 * time.Minute
)

// AcquireLock takes the run lock for owner. It returns false when another
// owner holds an unexpired lock. Re-acquiring a lock already held by owner
// refreshes its TTL.
func (s *Store) AcquireLock(owner string, ttl time.Duration) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	acquired := false
	err := s.db.Update(func(txn *badger.Txn) error {
		holder, err := readString(txn, lockKey)
		if err != nil {
			return err
		}
		if holder != "" && holder != owner {
			logging.Debug().Str("holder", holder).Str("owner", owner).Msg("Run lock held by another run")
			return nil
		}
		acquired = true
		return txn.SetEntry(badger.NewEntry([]byte(lockKey), []byte(owner)).WithTTL(ttl))
	})
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return acquired, nil
}

// ReleaseLock releases the run lock if owner holds it.
func (s *Store) ReleaseLock(owner string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		holder, err := readString(txn, lockKey)
		if err != nil {
			return err
		}
		if holder != owner {
			return nil
		}
		return txn.Delete([]byte(lockKey))
	})
	if err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

// LockHolder returns the run ID holding the lock, or "" when it is free.
func (s *Store) LockHolder() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return "", err
	}

	var holder string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		holder, err = readString(txn, lockKey)
		return err
	})
	return holder, err
}

// readString returns the value under key, or "" when it is absent or expired.
func readString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
