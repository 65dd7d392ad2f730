// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package merge

import (
	"errors"
	"strings"

	"github.com/tomtom215/crmsync/internal/models"
)

// ErrMalformedRecord is returned for a guest record with neither a person id nor an email.
var ErrMalformedRecord = errors.New("malformed guest record: no person id or email")

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IdentityKey returns the key a guest record merges under.
func IdentityKey(g *models.GuestRecord) (string, error) {
	if g.PersonID != nil {
		if id := strings.TrimSpace(*g.PersonID); id != "" {
			return id, nil
		}
	}
	if email := NormalizeEmail(g.Email); email != "" {
		return email, nil
	}
	return "", ErrMalformedRecord
}
