// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package models

import (
	"sort"
	"strings"
	"time"
)

// EmailClassification separates consumer mailboxes from company domains.
type EmailClassification string

const (
	EmailPersonal EmailClassification = "personal"
	EmailBusiness EmailClassification = "business"
)

// DefaultRelationshipStage is assigned to contacts on first insert.
const DefaultRelationshipStage = "lead"

// UniqueContact is the merged view of one person within a single run.
type UniqueContact struct {
	IdentityKey         string              `json:"identity_key"`
	DisplayName         string              `json:"display_name"`
	Email               string              `json:"email"`
	EmailClassification EmailClassification `json:"email_classification"`
	Company             *string             `json:"company,omitempty"`
	Phone               *string             `json:"phone,omitempty"`
	WalletAddresses     map[string]string   `json:"wallet_addresses"`
	SocialHandles       map[string]string   `json:"social_handles"`
	FirstSeenAt         time.Time           `json:"first_seen_at"`
	EventsAttended      int                 `json:"events_attended"`
	TotalSpentCents     int64               `json:"total_spent_cents"`
	AttributedEvents    map[string]struct{} `json:"-"`
	Sources             map[string]struct{} `json:"-"`
}

// EventIDs returns the attributed event IDs in sorted order.
func (u *UniqueContact) EventIDs() []string {
	return sortedKeys(u.AttributedEvents)
}

// SourceNames returns the sources this person was seen in, sorted.
func (u *UniqueContact) SourceNames() []string {
	return sortedKeys(u.Sources)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Contact is a persisted contact row.
type Contact struct {
	Email               string              `json:"email"`
	IdentityKey         string              `json:"identity_key"`
	DisplayName         string              `json:"display_name"`
	FirstName           *string             `json:"first_name,omitempty"`
	LastName            *string             `json:"last_name,omitempty"`
	EmailClassification EmailClassification `json:"email_classification"`
	Company             *string             `json:"company,omitempty"`
	Phone               *string             `json:"phone,omitempty"`
	WalletAddresses     map[string]string   `json:"wallet_addresses,omitempty"`
	SocialHandles       map[string]string   `json:"social_handles,omitempty"`
	RelationshipStage   string              `json:"relationship_stage"`
	EventsAttended      int                 `json:"events_attended"`
	TotalSpentCents     int64               `json:"total_spent_cents"`
	AttributedEvents    []string            `json:"attributed_events,omitempty"`
	Sources             []string            `json:"sources,omitempty"`
	FirstSeenAt         time.Time           `json:"first_seen_at"`
	LastSyncedAt        time.Time           `json:"last_synced_at"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// ContactFromUnique converts a merged contact into a store row stamped with syncedAt.
func ContactFromUnique(u *UniqueContact, syncedAt time.Time) Contact {
	first, last := SplitName(u.DisplayName)
	return Contact{
		Email:               u.Email,
		IdentityKey:         u.IdentityKey,
		DisplayName:         u.DisplayName,
		FirstName:           first,
		LastName:            last,
		EmailClassification: u.EmailClassification,
		Company:             u.Company,
		Phone:               u.Phone,
		WalletAddresses:     u.WalletAddresses,
		SocialHandles:       u.SocialHandles,
		RelationshipStage:   DefaultRelationshipStage,
		EventsAttended:      u.EventsAttended,
		TotalSpentCents:     u.TotalSpentCents,
		AttributedEvents:    u.EventIDs(),
		Sources:             u.SourceNames(),
		FirstSeenAt:         u.FirstSeenAt,
		LastSyncedAt:        syncedAt,
	}
}

// SplitName splits "Ada King Lovelace" into ("Ada", "King Lovelace").
// Missing parts are nil.
func SplitName(display string) (first, last *string) {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		return nil, nil
	}
	f := fields[0]
	first = &f
	if len(fields) > 1 {
		l := strings.Join(fields[1:], " ")
		last = &l
	}
	return first, last
}

// ContactQuery filters and pages contact reads.
type ContactQuery struct {
	Search         string `validate:"max=200"`
	SearchType     string `validate:"omitempty,oneof=name email company"`
	Stage          string `validate:"omitempty,relationship_stage"`
	Classification string `validate:"omitempty,oneof=personal business"`
	SortBy         string `validate:"omitempty,oneof=email name events_attended total_spent first_seen_at updated_at"`
	Order          string `validate:"omitempty,oneof=asc desc"`
	Limit          int    `validate:"gte=0,lte=500"`
	Offset         int    `validate:"gte=0"`
}

// ContactPage is one page of a contact listing.
type ContactPage struct {
	Contacts []Contact `json:"contacts"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// ContactStats summarizes the store for dashboards.
type ContactStats struct {
	Total            int            `json:"total"`
	ByStage          map[string]int `json:"by_stage"`
	ByClassification map[string]int `json:"by_classification"`
	TotalSpentCents  int64          `json:"total_spent_cents"`
}

// UpsertOptions tunes a store upsert.
type UpsertOptions struct {
	// PreserveStats keeps an existing row's event counters, attributed
	// events and first-seen time. Imports use it; syncs overwrite.
	PreserveStats bool
}
