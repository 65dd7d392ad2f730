// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/crmsync/internal/database/query"
	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
)

// ListContacts returns one page of contacts matching q and the total
// number of matches.
func (db *DB) ListContacts(ctx context.Context, q models.ContactQuery) (page *models.ContactPage, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(db.driver, "list_contacts", time.Since(start), err) }()

	q = query.Normalize(q)
	wb := query.ForContacts(query.Question, q)
	where, args := wb.BuildWithPrefix()

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	limit := wb.Page(q.Limit, q.Offset)
	where, args = wb.BuildWithPrefix()
	sqlText := fmt.Sprintf(`SELECT %s FROM contacts %s %s %s`, contactColumns, where, query.OrderBy(q), limit)

	rows, err := db.conn.QueryContext(ctx, sqlText, args...)
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
// Stages without contacts are absent.
func (db *DB) CountByStage(ctx context.Context) (map[string]int, error) {
	return db.countBy(ctx, "relationship_stage")
}

// Stats summarizes the contact table.
func (db *DB) Stats(ctx context.Context) (*models.ContactStats, error) {
	start := time.Now()
	stats := &models.ContactStats{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), CAST(COALESCE(SUM(total_spent_cents), 0) AS BIGINT) FROM contacts`,
	).Scan(&stats.Total, &stats.TotalSpentCents)
	metrics.RecordDBQuery(db.driver, "contact_stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read contact totals: %w", err)
	}

	if stats.ByStage, err = db.CountByStage(ctx); err != nil {
		return nil, err
	}
	if stats.ByClassification, err = db.countBy(ctx, "email_classification"); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy groups contacts by a fixed column name.
func (db *DB) countBy(ctx context.Context, column string) (counts map[string]int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(db.driver, "count_by_"+column, time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM contacts GROUP BY %s`, column, column))
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
