// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/crmsync/internal/models"
)

// pageEnvelope is the paginated response shape shared by every list endpoint.
type pageEnvelope struct {
	Entries    []json.RawMessage `json:"entries"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

type wireEventEntry struct {
	APIID string     `json:"api_id"`
	Event *wireEvent `json:"event"`
}

type wireEvent struct {
	APIID   string `json:"api_id"`
	Name    string `json:"name"`
	StartAt string `json:"start_at"`
}

type wireGuestEntry struct {
	APIID string     `json:"api_id"`
	Guest *wireGuest `json:"guest"`
}

type wireGuest struct {
	APIID           string      `json:"api_id"`
	UserAPIID       string      `json:"user_api_id"`
	UserName        string      `json:"user_name"`
	Name            string      `json:"name"`
	UserEmail       string      `json:"user_email"`
	Email           string      `json:"email"`
	PhoneNumber     string      `json:"phone_number"`
	EthAddress      string      `json:"eth_address"`
	SolanaAddress   string      `json:"solana_address"`
	TwitterHandle   string      `json:"twitter_handle"`
	LinkedInHandle  string      `json:"linkedin_handle"`
	TelegramHandle  string      `json:"telegram_handle"`
	InstagramHandle string      `json:"instagram_handle"`
	GitHubHandle    string      `json:"github_handle"`
	RegisteredAt    string      `json:"registered_at"`
	CreatedAt       string      `json:"created_at"`
	EventTicket     *wireTicket `json:"event_ticket"`
}

type wireTicket struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

// normalizeEvent accepts both the wrapped {"event": {...}} entry and a bare event.
func normalizeEvent(raw json.RawMessage) (models.EventRecord, error) {
	var entry wireEventEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.EventRecord{}, fmt.Errorf("%w: event entry: %v", ErrMalformedResponse, err)
	}
	ev := entry.Event
	if ev == nil {
		ev = &wireEvent{}
		if err := json.Unmarshal(raw, ev); err != nil {
			return models.EventRecord{}, fmt.Errorf("%w: event entry: %v", ErrMalformedResponse, err)
		}
	}
	id := strings.TrimSpace(ev.APIID)
	if id == "" {
		id = strings.TrimSpace(entry.APIID)
	}
	if id == "" {
		return models.EventRecord{}, fmt.Errorf("%w: event entry without id", ErrMalformedResponse)
	}

	rec := models.EventRecord{ID: id, Name: strings.TrimSpace(ev.Name)}
	if t, ok := parseTime(ev.StartAt); ok {
		rec.StartAt = &t
	}
	return rec, nil
}

// normalizeGuest converts one guest entry into a typed record. Identity is
// not checked here; the merger rejects records it cannot key.
func normalizeGuest(raw json.RawMessage, eventID, source string) (models.GuestRecord, error) {
	var entry wireGuestEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.GuestRecord{}, fmt.Errorf("%w: guest entry: %v", ErrMalformedResponse, err)
	}
	g := entry.Guest
	if g == nil {
		g = &wireGuest{}
		if err := json.Unmarshal(raw, g); err != nil {
			return models.GuestRecord{}, fmt.Errorf("%w: guest entry: %v", ErrMalformedResponse, err)
		}
	}

	rec := models.GuestRecord{
		EventID:     eventID,
		Source:      source,
		PersonID:    optional(g.UserAPIID),
		DisplayName: firstNonEmpty(g.UserName, g.Name),
		Email:       firstNonEmpty(g.UserEmail, g.Email),
		Phone:       optional(g.PhoneNumber),
	}

	rec.WalletAddresses = collect(map[string]string{
		models.ChainEthereum: g.EthAddress,
		models.ChainSolana:   g.SolanaAddress,
	})
	rec.SocialHandles = collect(map[string]string{
		models.SocialTwitter:   g.TwitterHandle,
		models.SocialLinkedIn:  g.LinkedInHandle,
		models.SocialTelegram:  g.TelegramHandle,
		models.SocialInstagram: g.InstagramHandle,
		models.SocialGitHub:    g.GitHubHandle,
	})

	if g.EventTicket != nil && g.EventTicket.Amount != nil {
		cents := ToCents(*g.EventTicket.Amount)
		rec.TicketAmountCents = &cents
	}

	if t, ok := parseTime(g.RegisteredAt); ok {
		rec.RegisteredAt = t
	} else if t, ok := parseTime(g.CreatedAt); ok {
		rec.RegisteredAt = t
	}
	return rec, nil
}

// ToCents converts a decimal currency amount to integer cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(math.Round(amount * 100))
}

func parseTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func collect(in map[string]string) map[string]string {
	var out map[string]string
	for k, v := range in {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(in))
		}
		out[k] = v
	}
	return out
}
