// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"fmt"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
)

// EnumerateEvents follows the calendar listing to its end. When a page
// fails, the events gathered so far are returned together with the error.
// Entries that cannot be normalized are skipped and logged.
func (c *Client) EnumerateEvents(ctx context.Context) ([]models.EventRecord, error) {
	var (
		events []models.EventRecord
		cursor string
		pages  int
	)
	for {
		page, err := c.FetchPage(ctx, eventsEndpoint, nil, cursor, c.eventPolicy)
		if err != nil {
			return events, fmt.Errorf("list events page %d: %w", pages+1, err)
		}
		pages++

		for _, raw := range page.Entries {
			ev, err := normalizeEvent(raw)
			if err != nil {
				logging.Warn().Err(err).Str("source", c.source).Msg("Skipping event entry")
				continue
			}
			events = append(events, ev)
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	logging.Debug().Str("source", c.source).Int("events", len(events)).Int("pages", pages).Msg("Enumerated events")
	return events, nil
}
