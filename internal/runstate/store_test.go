// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package runstate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/models"
)

func setupStore(t *testing.T, historyLimit int) *Store {
	t.Helper()
	s, err := Open(&config.RunStateConfig{InMemory: true, HistoryLimit: historyLimit})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAcquireLock(t *testing.T) {
	t.Parallel()
	s := setupStore(t, 10)

	ok, err := s.AcquireLock("run-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("AcquireLock(run-1) = %v, %v; want true", ok, err)
	}
	if ok, _ := s.AcquireLock("run-2", time.Minute); ok {
		t.Error("AcquireLock(run-2) succeeded while run-1 holds the lock")
	}
	if ok, _ := s.AcquireLock("run-1", time.Minute); !ok {
		t.Error("owner could not refresh its own lock")
	}

	if err := s.ReleaseLock("run-2"); err != nil {
		t.Fatalf("ReleaseLock(run-2) error = %v", err)
	}
	if holder, _ := s.LockHolder(); holder != "run-1" {
		t.Errorf("non-owner release freed the lock, holder = %q", holder)
	}

	if err := s.ReleaseLock("run-1"); err != nil {
		t.Fatalf("ReleaseLock(run-1) error = %v", err)
	}
	if ok, _ := s.AcquireLock("run-2", time.Minute); !ok {
		t.Error("AcquireLock(run-2) failed after release")
	}
}

func TestAcquireLock_Expires(t *testing.T) {
	t.Parallel()
	s := setupStore(t, 10)

	if ok, _ := s.AcquireLock("crashed", time.Second); !ok {
		t.Fatal("AcquireLock(crashed) failed")
	}
	// Badger TTLs have one-second resolution.
	time.Sleep(2100 * time.Millisecond)

	if ok, err := s.AcquireLock("next", time.Minute); err != nil || !ok {
		t.Errorf("AcquireLock(next) after expiry = %v, %v; want true", ok, err)
	}
}

func run(id string, started time.Time, state models.SyncState) *models.SyncRun {
	done := started.Add(time.Second)
	return &models.SyncRun{
		ID:          id,
		Trigger:     models.TriggerManual,
		State:       state,
		StartedAt:   started,
		CompletedAt: &done,
		DurationMS:  1000,
		Result:      &models.SyncResult{RunID: id, TotalUniqueContacts: 2, Imported: 2},
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()
	s := setupStore(t, 3)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	if last, err := s.LastRun(); err != nil || last != nil {
		t.Fatalf("LastRun() on empty store = %v, %v", last, err)
	}

	for i := 0; i < 5; i++ {
		if err := s.SaveRun(run(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour), models.SyncDone)); err != nil {
			t.Fatalf("SaveRun(%d) error = %v", i, err)
		}
	}

	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[r4 r3 r2]" {
		t.Errorf("ListRuns() ids = %v, want [r4 r3 r2]", ids)
	}
	if runs[0].Result == nil || runs[0].Result.Imported != 2 || runs[0].CompletedAt == nil {
		t.Errorf("round-tripped run = %+v", runs[0])
	}

	limited, _ := s.ListRuns(2)
	if len(limited) != 2 {
		t.Errorf("ListRuns(2) = %d runs", len(limited))
	}

	last, err := s.LastRun()
	if err != nil || last == nil || last.ID != "r4" {
		t.Errorf("LastRun() = %+v, %v", last, err)
	}
}

func TestSaveRun_Overwrites(t *testing.T) {
	t.Parallel()
	s := setupStore(t, 10)
	r := run("r1", time.Now().UTC(), models.SyncFailed)
	_ = s.SaveRun(r)
	r.State = models.SyncDone
	_ = s.SaveRun(r)

	runs, _ := s.ListRuns(0)
	if len(runs) != 1 || runs[0].State != models.SyncDone {
		t.Errorf("runs = %+v", runs)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()
	s := setupStore(t, 10)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := s.AcquireLock("x", time.Minute); !errors.Is(err, ErrClosed) {
		t.Errorf("AcquireLock() error = %v, want ErrClosed", err)
	}
	if err := s.SaveRun(run("x", time.Now(), models.SyncDone)); !errors.Is(err, ErrClosed) {
		t.Errorf("SaveRun() error = %v, want ErrClosed", err)
	}
}

func TestCompactor_StopsOnCancel(t *testing.T) {
	t.Parallel()
	s := setupStore(t, 10)
	c := NewCompactor(s, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := c.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want deadline exceeded", err)
	}
	if c.String() != "runstate-compactor" {
		t.Errorf("String() = %q", c.String())
	}
}
