// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/crmsync/internal/merge"
	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/validation"
)

const contactColumns = `email, identity_key, display_name, first_name, last_name, email_classification,
	company, phone, wallet_addresses, social_handles, relationship_stage, events_attended,
	total_spent_cents, attributed_events, sources, first_seen_at, last_synced_at, created_at, updated_at`

const upsertPrefix = `INSERT INTO contacts (` + contactColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET
	display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE display_name END,
	first_name = COALESCE(EXCLUDED.first_name, first_name),
	last_name = COALESCE(EXCLUDED.last_name, last_name),
	company = COALESCE(EXCLUDED.company, company),
	phone = COALESCE(EXCLUDED.phone, phone),
	wallet_addresses = COALESCE(EXCLUDED.wallet_addresses, wallet_addresses),
	social_handles = COALESCE(EXCLUDED.social_handles, social_handles),
	first_seen_at = CASE
		WHEN first_seen_at IS NULL THEN EXCLUDED.first_seen_at
		WHEN EXCLUDED.first_seen_at IS NOT NULL AND EXCLUDED.first_seen_at < first_seen_at THEN EXCLUDED.first_seen_at
		ELSE first_seen_at END,
	last_synced_at = COALESCE(EXCLUDED.last_synced_at, last_synced_at),
	updated_at = EXCLUDED.updated_at`

const upsertStats = `,
	identity_key = EXCLUDED.identity_key,
	events_attended = EXCLUDED.events_attended,
	total_spent_cents = EXCLUDED.total_spent_cents,
	attributed_events = EXCLUDED.attributed_events,
	sources = EXCLUDED.sources`

// upsertSQL returns the batch upsert statement. Sync runs own the counters
// and overwrite them; imports keep them.
func upsertSQL(opts models.UpsertOptions) string {
	if opts.PreserveStats {
		return upsertPrefix
	}
	return upsertPrefix + upsertStats
}

// UpsertContacts writes contacts in one transaction keyed on email. Absent
// optional fields never overwrite stored values and the stage is only set
// on insert. Any failure rolls back the whole batch.
func (db *DB) UpsertContacts(ctx context.Context, contacts []models.Contact, opts models.UpsertOptions) (err error) {
	if len(contacts) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery(db.driver, "upsert_contacts", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(opts))
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	now := db.now().UTC()
	for i := range contacts {
		args, argErr := upsertArgs(&contacts[i], now)
		if argErr != nil {
			return argErr
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert contact %s: %w", contacts[i].Email, err)
		}
	}

	if err = tx.Commit(); err != nil {
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

	wallets, err := encodeJSON(c.WalletAddresses, len(c.WalletAddresses))
	if err != nil {
		return nil, err
	}
	socials, err := encodeJSON(c.SocialHandles, len(c.SocialHandles))
	if err != nil {
		return nil, err
	}
	events, err := encodeJSON(c.AttributedEvents, len(c.AttributedEvents))
	if err != nil {
		return nil, err
	}
	sources, err := encodeJSON(c.Sources, len(c.Sources))
	if err != nil {
		return nil, err
	}

	var lastSynced interface{}
	if !c.LastSyncedAt.IsZero() {
		lastSynced = c.LastSyncedAt.UTC()
	}

	return []interface{}{
		email, c.IdentityKey, c.DisplayName, nullString(c.FirstName), nullString(c.LastName), string(classification),
		nullString(c.Company), nullString(c.Phone), wallets, socials, stage, c.EventsAttended,
		c.TotalSpentCents, events, sources, nullTime(c.FirstSeenAt), lastSynced, now, now,
	}, nil
}

// GetContact returns the contact stored under email.
func (db *DB) GetContact(ctx context.Context, email string) (*models.Contact, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = ?`, merge.NormalizeEmail(email))
	c, err := scanContact(row)
	metrics.RecordDBQuery(db.driver, "get_contact", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// UpdateStage moves a contact to stage.
func (db *DB) UpdateStage(ctx context.Context, email, stage string) error {
	if !validation.IsRelationshipStage(stage) {
		return fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE contacts SET relationship_stage = ?, updated_at = ? WHERE email = ?`,
		stage, db.now().UTC(), merge.NormalizeEmail(email))
	metrics.RecordDBQuery(db.driver, "update_stage", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrContactNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c                                     models.Contact
		first, last, company, phone           sql.NullString
		wallets, socials, events, sourcesJSON sql.NullString
		classification                        string
		firstSeen, lastSynced                 sql.NullTime
	)
	err := row.Scan(&c.Email, &c.IdentityKey, &c.DisplayName, &first, &last, &classification,
		&company, &phone, &wallets, &socials, &c.RelationshipStage, &c.EventsAttended,
		&c.TotalSpentCents, &events, &sourcesJSON, &firstSeen, &lastSynced, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.EmailClassification = models.EmailClassification(classification)
	c.FirstName = stringPtr(first)
	c.LastName = stringPtr(last)
	c.Company = stringPtr(company)
	c.Phone = stringPtr(phone)
	if firstSeen.Valid {
		c.FirstSeenAt = firstSeen.Time.UTC()
	}
	if lastSynced.Valid {
		c.LastSyncedAt = lastSynced.Time.UTC()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	if err := decodeJSON(wallets, &c.WalletAddresses); err != nil {
		return nil, err
	}
	if err := decodeJSON(socials, &c.SocialHandles); err != nil {
		return nil, err
	}
	if err := decodeJSON(events, &c.AttributedEvents); err != nil {
		return nil, err
	}
	if err := decodeJSON(sourcesJSON, &c.Sources); err != nil {
		return nil, err
	}
	return &c, nil
}

// encodeJSON returns v as JSON text, or nil when it has no elements.
func encodeJSON(v interface{}, n int) (interface{}, error) {
	if n == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(s sql.NullString, dst interface{}) error {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), dst); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
