// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package models

import "time"

// EventRecord identifies one event of a source.
type EventRecord struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	StartAt *time.Time `json:"start_at,omitempty"`
}

// GuestRecord is one attendee sighting for one event. Optional fields are
// nil when the platform did not supply them.
type GuestRecord struct {
	EventID           string            `json:"event_id"`
	Source            string            `json:"source"`
	PersonID          *string           `json:"person_id,omitempty"`
	DisplayName       string            `json:"display_name"`
	Email             string            `json:"email"`
	Phone             *string           `json:"phone,omitempty"`
	Company           *string           `json:"company,omitempty"`
	WalletAddresses   map[string]string `json:"wallet_addresses,omitempty"` // chain -> address
	SocialHandles     map[string]string `json:"social_handles,omitempty"`   // platform -> handle
	TicketAmountCents *int64            `json:"ticket_amount_cents,omitempty"`
	RegisteredAt      time.Time         `json:"registered_at"`
}

// Wallet chains and social platforms recognized at the platform boundary.
const (
	ChainEthereum = "ethereum"
	ChainSolana   = "solana"

	SocialTwitter   = "twitter"
	SocialLinkedIn  = "linkedin"
	SocialTelegram  = "telegram"
	SocialInstagram = "instagram"
	SocialGitHub    = "github"
)
