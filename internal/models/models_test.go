// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package models

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"", "", ""},
		{"Ada", "Ada", ""},
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"  Ada   King  Lovelace ", "Ada", "King Lovelace"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			first, last := SplitName(tt.in)
			if got := deref(first); got != tt.first {
				t.Errorf("first = %q, want %q", got, tt.first)
			}
			if got := deref(last); got != tt.last {
				t.Errorf("last = %q, want %q", got, tt.last)
			}
		})
	}
}

func TestContactFromUnique(t *testing.T) {
	t.Parallel()

	seen := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	synced := seen.Add(48 * time.Hour)
	u := &UniqueContact{
		IdentityKey:         "usr-1",
		DisplayName:         "Grace Hopper",
		Email:               "grace@navy.mil",
		EmailClassification: EmailBusiness,
		FirstSeenAt:         seen,
		EventsAttended:      2,
		TotalSpentCents:     1500,
		AttributedEvents:    map[string]struct{}{"evt-b": {}, "evt-a": {}},
		Sources:             map[string]struct{}{"secondary": {}, "primary": {}},
	}

	c := ContactFromUnique(u, synced)
	if c.RelationshipStage != DefaultRelationshipStage {
		t.Errorf("stage = %q, want %q", c.RelationshipStage, DefaultRelationshipStage)
	}
	if !reflect.DeepEqual(c.AttributedEvents, []string{"evt-a", "evt-b"}) {
		t.Errorf("events = %v", c.AttributedEvents)
	}
	if !reflect.DeepEqual(c.Sources, []string{"primary", "secondary"}) {
		t.Errorf("sources = %v", c.Sources)
	}
	if deref(c.FirstName) != "Grace" || deref(c.LastName) != "Hopper" {
		t.Errorf("name split = %q/%q", deref(c.FirstName), deref(c.LastName))
	}
	if !c.LastSyncedAt.Equal(synced) || !c.FirstSeenAt.Equal(seen) {
		t.Errorf("timestamps not carried over")
	}
}

func TestSyncStateTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []SyncState{SyncIdle, SyncFetchingEvents, SyncFetchingGuests, SyncMerging, SyncPersisting} {
		if s.Terminal() {
			t.Errorf("%s reported terminal", s)
		}
	}
	if !SyncDone.Terminal() || !SyncFailed.Terminal() {
		t.Error("done/failed must be terminal")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestSyncResultAddErrorCapsDetails(t *testing.T) {
	t.Parallel()

	var r SyncResult
	for i := 0; i < MaxErrorDetails+10; i++ {
		r.AddError(errors.New("boom"))
	}
	if r.Errors != MaxErrorDetails+10 {
		t.Errorf("Errors = %d, want %d", r.Errors, MaxErrorDetails+10)
	}
	if len(r.ErrorDetails) != MaxErrorDetails {
		t.Errorf("len(ErrorDetails) = %d, want %d", len(r.ErrorDetails), MaxErrorDetails)
	}
}
