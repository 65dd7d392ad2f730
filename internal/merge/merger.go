// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package merge

import (
	"sort"
	"strings"

	"github.com/tomtom215/crmsync/internal/models"
)

// Merger accumulates UniqueContacts keyed by identity.
//
// A person can surface under several keys: a platform person id on one
// event and a bare email on another, or two ids registered with the same
// address. Every key and email seen is recorded in aliases, pointing at the
// canonical key of its contact. When a sighting links two contacts they are
// folded into one, so no two merged contacts ever share an email. The
// canonical key of a linked group is its smallest person id, or its email
// when the group has no id, which keeps the result independent of input
// order.
type Merger struct {
	contacts  map[string]*models.UniqueContact
	aliases   map[string]string
	bySource  map[string]map[string]struct{}
	malformed int
}

// New returns an empty Merger.
func New() *Merger {
	return &Merger{
		contacts: make(map[string]*models.UniqueContact),
		aliases:  make(map[string]string),
		bySource: make(map[string]map[string]struct{}),
	}
}

// Add folds one sighting. It returns ErrMalformedRecord when the record
// cannot be keyed; the record is then skipped.
func (m *Merger) Add(g *models.GuestRecord) error {
	key, err := IdentityKey(g)
	if err != nil {
		m.malformed++
		return err
	}
	email := NormalizeEmail(g.Email)

	target := m.aliases[key]
	if email != "" {
		if other, ok := m.aliases[email]; ok {
			switch {
			case target == "":
				target = other
			case target != other:
				target = m.fold(target, other)
			}
		}
	}

	c, ok := m.contacts[target]
	if !ok {
		target = key
		c = &models.UniqueContact{
			IdentityKey:      key,
			WalletAddresses:  make(map[string]string),
			SocialHandles:    make(map[string]string),
			AttributedEvents: make(map[string]struct{}),
			Sources:          make(map[string]struct{}),
			FirstSeenAt:      g.RegisteredAt,
		}
		m.contacts[key] = c
	} else {
		if preferKey(key, target) {
			target = m.rename(target, key)
		}
		if !g.RegisteredAt.IsZero() && (c.FirstSeenAt.IsZero() || g.RegisteredAt.Before(c.FirstSeenAt)) {
			c.FirstSeenAt = g.RegisteredAt
		}
	}
	m.aliases[key] = target
	if email != "" {
		m.aliases[email] = target
	}

	if _, seen := c.AttributedEvents[g.EventID]; !seen {
		c.AttributedEvents[g.EventID] = struct{}{}
		c.EventsAttended++
	}
	if g.TicketAmountCents != nil && *g.TicketAmountCents > 0 {
		c.TotalSpentCents += *g.TicketAmountCents
	}

	backfill(c, g)

	if g.Source != "" {
		c.Sources[g.Source] = struct{}{}
		keys, ok := m.bySource[g.Source]
		if !ok {
			keys = make(map[string]struct{})
			m.bySource[g.Source] = keys
		}
		keys[target] = struct{}{}
	}
	return nil
}

// preferKey reports whether a should replace b as a canonical key.
// Person ids beat emails; ties go to the smaller key.
func preferKey(a, b string) bool {
	aEmail, bEmail := strings.Contains(a, "@"), strings.Contains(b, "@")
	if aEmail != bEmail {
		return bEmail
	}
	return a < b
}

// fold merges the contacts under keys a and b and returns the surviving key.
func (m *Merger) fold(a, b string) string {
	winner, loser := a, b
	if preferKey(b, a) {
		winner, loser = b, a
	}
	dst, src := m.contacts[winner], m.contacts[loser]

	for id := range src.AttributedEvents {
		dst.AttributedEvents[id] = struct{}{}
	}
	dst.EventsAttended = len(dst.AttributedEvents)
	dst.TotalSpentCents += src.TotalSpentCents
	if !src.FirstSeenAt.IsZero() && (dst.FirstSeenAt.IsZero() || src.FirstSeenAt.Before(dst.FirstSeenAt)) {
		dst.FirstSeenAt = src.FirstSeenAt
	}
	for name := range src.Sources {
		dst.Sources[name] = struct{}{}
	}
	absorbProfile(dst, src)

	delete(m.contacts, loser)
	m.repoint(loser, winner)
	return winner
}

// rename moves the contact under old to key.
func (m *Merger) rename(old, key string) string {
	c := m.contacts[old]
	c.IdentityKey = key
	delete(m.contacts, old)
	m.contacts[key] = c
	m.repoint(old, key)
	return key
}

// repoint redirects aliases and per-source membership from old to key.
func (m *Merger) repoint(old, key string) {
	for alias, target := range m.aliases {
		if target == old {
			m.aliases[alias] = key
		}
	}
	for _, keys := range m.bySource {
		if _, ok := keys[old]; ok {
			delete(keys, old)
			keys[key] = struct{}{}
		}
	}
}

// absorbProfile fills still-empty profile fields of dst from src.
func absorbProfile(dst, src *models.UniqueContact) {
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.Email == "" {
		dst.Email = src.Email
		dst.EmailClassification = src.EmailClassification
	}
	if dst.Phone == nil {
		dst.Phone = src.Phone
	}
	if dst.Company == nil {
		dst.Company = src.Company
	}
	for chain, addr := range src.WalletAddresses {
		if _, ok := dst.WalletAddresses[chain]; !ok {
			dst.WalletAddresses[chain] = addr
		}
	}
	for platform, handle := range src.SocialHandles {
		if _, ok := dst.SocialHandles[platform]; !ok {
			dst.SocialHandles[platform] = handle
		}
	}
}

// AddAll folds records in order and returns how many were rejected.
func (m *Merger) AddAll(records []models.GuestRecord) int {
	rejected := 0
	for i := range records {
		if err := m.Add(&records[i]); err != nil {
			rejected++
		}
	}
	return rejected
}

// backfill sets still-empty fields from g.
func backfill(c *models.UniqueContact, g *models.GuestRecord) {
	if c.DisplayName == "" {
		c.DisplayName = strings.TrimSpace(g.DisplayName)
	}
	if c.Email == "" {
		if email := NormalizeEmail(g.Email); email != "" {
			c.Email = email
			c.EmailClassification = Classify(email)
		}
	}
	if c.Phone == nil && g.Phone != nil && *g.Phone != "" {
		phone := *g.Phone
		c.Phone = &phone
	}
	if c.Company == nil && g.Company != nil && *g.Company != "" {
		company := *g.Company
		c.Company = &company
	}
	for chain, addr := range g.WalletAddresses {
		if _, ok := c.WalletAddresses[chain]; !ok && addr != "" {
			c.WalletAddresses[chain] = addr
		}
	}
	for platform, handle := range g.SocialHandles {
		if _, ok := c.SocialHandles[platform]; !ok && handle != "" {
			c.SocialHandles[platform] = handle
		}
	}
}

// Contacts returns the merged contacts sorted by identity key. Business
// contacts without a company get one derived from their email domain.
// The returned values share their maps with the Merger.
func (m *Merger) Contacts() []models.UniqueContact {
	keys := make([]string, 0, len(m.contacts))
	for k := range m.contacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.UniqueContact, 0, len(keys))
	for _, k := range keys {
		c := *m.contacts[k]
		if c.EmailClassification == "" {
			c.EmailClassification = models.EmailPersonal
		}
		if c.Company == nil && c.EmailClassification == models.EmailBusiness {
			if name := CompanyFromDomain(EmailDomain(c.Email)); name != "" {
				c.Company = &name
			}
		}
		out = append(out, c)
	}
	return out
}

// Get returns the contact that key, a person id or an email, resolved to.
func (m *Merger) Get(key string) (*models.UniqueContact, bool) {
	target, ok := m.aliases[key]
	if !ok {
		target = m.aliases[NormalizeEmail(key)]
	}
	c, ok := m.contacts[target]
	return c, ok
}

// Len returns the number of distinct identities.
func (m *Merger) Len() int {
	return len(m.contacts)
}

// Errors returns how many records were rejected as malformed.
func (m *Merger) Errors() int {
	return m.malformed
}

// SourceCount returns how many distinct identities were seen in source.
func (m *Merger) SourceCount(source string) int {
	return len(m.bySource[source])
}
