// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/crmsync/internal/models"
)

func TestManager_StartStop(t *testing.T) {
	t.Parallel()

	rs := &fakeRunState{}
	m := newTestManager(t, newMemStore(), []Source{twoEventSource("primary")}, WithRunState(rs))
	m.cfg.Sync.Interval = 20 * time.Millisecond
	m.cfg.Sync.RunOnStartup = true

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		rs.mu.Lock()
		n := len(rs.saved)
		rs.mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("saw %d runs, want at least 2", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if st := m.Status(); st.NextRunAt == nil {
		t.Error("NextRunAt not set while scheduled")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := m.Stop(); err == nil {
		t.Error("second Stop() succeeded")
	}
	if st := m.Status(); st.NextRunAt != nil {
		t.Error("NextRunAt still set after Stop")
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.saved[0].Trigger != models.TriggerStartup {
		t.Errorf("first trigger = %s, want startup", rs.saved[0].Trigger)
	}
}

func TestManager_StartWithoutInterval(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, newMemStore(), []Source{twoEventSource("primary")})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if m.State() != models.SyncIdle {
		t.Errorf("State() = %s, want idle", m.State())
	}
}
