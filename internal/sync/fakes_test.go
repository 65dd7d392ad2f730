// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/models"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeSource serves fixed events and guests.
type fakeSource struct {
	name      string
	events    []models.EventRecord
	eventsErr error
	guests    map[string][]models.GuestRecord
	guestErrs map[string]error

	// block, when set, is received from before EnumerateEvents returns.
	block chan struct{}
	// onGuests, when set, runs before each EnumerateGuests call.
	onGuests func(eventID string)
}

func (f *fakeSource) Source() string { return f.name }

func (f *fakeSource) EnumerateEvents(ctx context.Context) ([]models.EventRecord, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return append([]models.EventRecord(nil), f.events...), f.eventsErr
}

func (f *fakeSource) EnumerateGuests(_ context.Context, eventID string) ([]models.GuestRecord, error) {
	if f.onGuests != nil {
		f.onGuests(eventID)
	}
	guests := append([]models.GuestRecord(nil), f.guests[eventID]...)
	return guests, f.guestErrs[eventID]
}

func event(id string) models.EventRecord {
	return models.EventRecord{ID: id, Name: "Event " + id}
}

func guest(eventID, personID, email string, cents int64) models.GuestRecord {
	g := models.GuestRecord{EventID: eventID, Email: email, DisplayName: "Guest " + personID, RegisteredAt: baseTime}
	if personID != "" {
		g.PersonID = &personID
	}
	g.TicketAmountCents = &cents
	return g
}

// twoEventSource is the canonical scenario: u1 attends A and B, u2 attends B.
func twoEventSource(name string) *fakeSource {
	return &fakeSource{
		name:   name,
		events: []models.EventRecord{event("A"), event("B")},
		guests: map[string][]models.GuestRecord{
			"A": {guest("A", "u1", "a@x.com", 1000)},
			"B": {guest("B", "u1", "a@x.com", 500), guest("B", "u2", "b@y.com", 0)},
		},
	}
}

// memStore is an in-memory ContactStore keyed by email. Like a SQL store
// it refuses writes on a done context.
type memStore struct {
	mu       sync.Mutex
	rows     map[string]models.Contact
	calls    []int
	failCall int
	pingErr  error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]models.Contact)}
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func (s *memStore) UpsertContacts(ctx context.Context, contacts []models.Contact, opts models.UpsertOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, len(contacts))
	if len(s.calls) == s.failCall {
		return errors.New("disk full")
	}
	for _, c := range contacts {
		if existing, ok := s.rows[c.Email]; ok {
			if c.Phone == nil {
				c.Phone = existing.Phone
			}
			if c.Company == nil {
				c.Company = existing.Company
			}
			c.RelationshipStage = existing.RelationshipStage
			if opts.PreserveStats {
				c.EventsAttended = existing.EventsAttended
				c.TotalSpentCents = existing.TotalSpentCents
			}
		}
		s.rows[c.Email] = c
	}
	return nil
}

func (s *memStore) Get(email string) (models.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[email]
	return c, ok
}

func (s *memStore) Snapshot() map[string]models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Contact, len(s.rows))
	for k, v := range s.rows {
		v.LastSyncedAt = time.Time{}
		out[k] = v
	}
	return out
}

// fakeRunState records lock and history calls.
type fakeRunState struct {
	mu       sync.Mutex
	locked   bool
	denyLock bool
	saved    []models.SyncRun
}

func (f *fakeRunState) AcquireLock(string, time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyLock || f.locked {
		return false, nil
	}
	f.locked = true
	return true, nil
}

func (f *fakeRunState) ReleaseLock(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = false
	return nil
}

func (f *fakeRunState) SaveRun(run *models.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *run)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	runs []models.SyncRun
}

func (f *fakePublisher) PublishSyncCompleted(_ context.Context, run *models.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{
			BatchSize:        5,
			PersistBatchSize: 100,
		},
		RunState: config.RunStateConfig{LockTTL: time.Minute},
	}
}

func newTestManager(t *testing.T, store ContactStore, sources []Source, opts ...ManagerOption) *Manager {
	t.Helper()
	base := []ManagerOption{WithCoordinator(NewBatchCoordinator(5, 0))}
	return NewManager(testConfig(), sources, store, append(base, opts...)...)
}
