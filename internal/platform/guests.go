// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
)

// EnumerateGuests lists every guest of eventID using the guest retry policy.
// Partial results are returned alongside a page error.
func (c *Client) EnumerateGuests(ctx context.Context, eventID string) ([]models.GuestRecord, error) {
	query := url.Values{eventIDParam: []string{eventID}}

	var (
		guests []models.GuestRecord
		cursor string
		pages  int
	)
	for {
		page, err := c.FetchPage(ctx, guestsEndpoint, query, cursor, c.guestPolicy)
		if err != nil {
			return guests, fmt.Errorf("list guests of %s page %d: %w", eventID, pages+1, err)
		}
		pages++

		for _, raw := range page.Entries {
			g, err := normalizeGuest(raw, eventID, c.source)
			if err != nil {
				logging.Warn().Err(err).Str("source", c.source).Str("event_id", eventID).Msg("Skipping guest entry")
				continue
			}
			guests = append(guests, g)
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	return guests, nil
}
