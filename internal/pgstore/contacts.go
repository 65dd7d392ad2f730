// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/crmsync/internal/database"
	"github.com/tomtom215/crmsync/internal/database/query"
	"github.com/tomtom215/crmsync/internal/merge"
	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/validation"
)

const contactColumns = `email, identity_key, display_name, first_name, last_name, email_classification,
	company, phone, wallet_addresses, social_handles, relationship_stage, events_attended,
	total_spent_cents, attributed_events, sources, first_seen_at, last_synced_at, created_at, updated_at`

const upsertPrefix = `INSERT INTO contacts AS c (` + contactColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (email) DO UPDATE SET
	display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE c.display_name END,
	first_name = COALESCE(EXCLUDED.first_name, c.first_name),
	last_name = COALESCE(EXCLUDED.last_name, c.last_name),
	company = COALESCE(EXCLUDED.company, c.company),
	phone = COALESCE(EXCLUDED.phone, c.phone),
	wallet_addresses = COALESCE(EXCLUDED.wallet_addresses, c.wallet_addresses),
	social_handles = COALESCE(EXCLUDED.social_handles, c.social_handles),
	first_seen_at = LEAST(c.first_seen_at, EXCLUDED.first_seen_at),
	last_synced_at = COALESCE(EXCLUDED.last_synced_at, c.last_synced_at),
	updated_at = EXCLUDED.updated_at`

const upsertStats = `,
	identity_key = EXCLUDED.identity_key,
	events_attended = EXCLUDED.events_attended,
	total_spent_cents = EXCLUDED.total_spent_cents,
	attributed_events = EXCLUDED.attributed_events,
	sources = EXCLUDED.sources`

func upsertSQL(opts models.UpsertOptions) string {
	if opts.PreserveStats {
		return upsertPrefix
	}
	return upsertPrefix + upsertStats
}

// UpsertContacts writes contacts in one transaction keyed on email, with
// the same merge rules as the embedded store.
func (s *Store) UpsertContacts(ctx context.Context, contacts []models.Contact, opts models.UpsertOptions) (err error) {
	if len(contacts) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery(driverName, "upsert_contacts", time.Since(start), err) }()

	now := s.now().UTC()
	sqlText := upsertSQL(opts)
	batch := &pgx.Batch{}
	for i := range contacts {
		args, argErr := upsertArgs(&contacts[i], now)
		if argErr != nil {
			return argErr
		}
		batch.Queue(sqlText, args...)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	br := tx.SendBatch(ctx, batch)
	for i := range contacts {
		if _, err = br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to upsert contact %s: %w", contacts[i].Email, err)
		}
	}
	if err = br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit contact batch: %w", err)
	}
	return nil
}

func upsertArgs(c *models.Contact, now time.Time) ([]interface{}, error) {
	email := merge.NormalizeEmail(c.Email)
	if email == "" {
		return nil, fmt.Errorf("contact %q has no email", c.IdentityKey)
	}
	stage := c.RelationshipStage
	if stage == "" {
		stage = models.DefaultRelationshipStage
	}
	classification := c.EmailClassification
	if classification == "" {
		classification = models.EmailPersonal
	}

	var jsonArgs [4]interface{}
	for i, v := range []struct {
		val interface{}
		n   int
	}{
		{c.WalletAddresses, len(c.WalletAddresses)},
		{c.SocialHandles, len(c.SocialHandles)},
		{c.AttributedEvents, len(c.AttributedEvents)},
		{c.Sources, len(c.Sources)},
	} {
		if v.n == 0 {
			continue
		}
		b, err := json.Marshal(v.val)
		if err != nil {
			return nil, fmt.Errorf("failed to encode column: %w", err)
		}
		jsonArgs[i] = string(b)
	}

	return []interface{}{
		email, c.IdentityKey, c.DisplayName, c.FirstName, c.LastName, string(classification),
		c.Company, c.Phone, jsonArgs[0], jsonArgs[1], stage, c.EventsAttended,
		c.TotalSpentCents, jsonArgs[2], jsonArgs[3], optTime(c.FirstSeenAt), optTime(c.LastSyncedAt), now, now,
	}, nil
}

// GetContact returns the contact stored under email.
func (s *Store) GetContact(ctx context.Context, email string) (*models.Contact, error) {
	start := time.Now()
	row := s.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = $1`, merge.NormalizeEmail(email))
	c, err := scanContact(row)
	metrics.RecordDBQuery(driverName, "get_contact", time.Since(start), err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// UpdateStage moves a contact to stage.
func (s *Store) UpdateStage(ctx context.Context, email, stage string) error {
	if !validation.IsRelationshipStage(stage) {
		return fmt.Errorf("%w: %q", database.ErrInvalidStage, stage)
	}
	start := time.Now()
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET relationship_stage = $1, updated_at = $2 WHERE email = $3`,
		stage, s.now().UTC(), merge.NormalizeEmail(email))
	metrics.RecordDBQuery(driverName, "update_stage", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrContactNotFound
	}
	return nil
}

// ListContacts returns one page of contacts matching q and the total
// number of matches.
func (s *Store) ListContacts(ctx context.Context, q models.ContactQuery) (page *models.ContactPage, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(driverName, "list_contacts", time.Since(start), err) }()

	q = query.Normalize(q)
	wb := query.ForContacts(query.Dollar, q)
	where, args := wb.BuildWithPrefix()

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	limit := wb.Page(q.Limit, q.Offset)
	where, args = wb.BuildWithPrefix()
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM contacts %s %s %s`, contactColumns, where, query.OrderBy(q), limit), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	page = &models.ContactPage{Contacts: []models.Contact{}, Total: total, Limit: q.Limit, Offset: q.Offset}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		page.Contacts = append(page.Contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return page, nil
}

// CountByStage returns the number of contacts in each relationship stage.
func (s *Store) CountByStage(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx, "relationship_stage")
}

// Stats summarizes the contact table.
func (s *Store) Stats(ctx context.Context) (*models.ContactStats, error) {
	stats := &models.ContactStats{}
	start := time.Now()
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_spent_cents), 0)::BIGINT FROM contacts`,
	).Scan(&stats.Total, &stats.TotalSpentCents)
	metrics.RecordDBQuery(driverName, "contact_stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read contact totals: %w", err)
	}
	if stats.ByStage, err = s.CountByStage(ctx); err != nil {
		return nil, err
	}
	if stats.ByClassification, err = s.countBy(ctx, "email_classification"); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) countBy(ctx context.Context, column string) (counts map[string]int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(driverName, "count_by_"+column, time.Since(start), err) }()

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM contacts GROUP BY %s`, column, column))
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts by %s: %w", column, err)
	}
	defer rows.Close()

	counts = make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func scanContact(row pgx.Row) (*models.Contact, error) {
	var (
		c                                     models.Contact
		classification                        string
		wallets, socials, events, sourcesJSON []byte
		firstSeen, lastSynced                 *time.Time
	)
	err := row.Scan(&c.Email, &c.IdentityKey, &c.DisplayName, &c.FirstName, &c.LastName, &classification,
		&c.Company, &c.Phone, &wallets, &socials, &c.RelationshipStage, &c.EventsAttended,
		&c.TotalSpentCents, &events, &sourcesJSON, &firstSeen, &lastSynced, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.EmailClassification = models.EmailClassification(classification)
	if firstSeen != nil {
		c.FirstSeenAt = firstSeen.UTC()
	}
	if lastSynced != nil {
		c.LastSyncedAt = lastSynced.UTC()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{wallets, &c.WalletAddresses},
		{socials, &c.SocialHandles},
		{events, &c.AttributedEvents},
		{sourcesJSON, &c.Sources},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("failed to decode column: %w", err)
		}
	}
	return &c, nil
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
