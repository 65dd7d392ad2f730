// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package query

import (
	"fmt"
	"strings"

	"github.com/tomtom215/crmsync/internal/models"
)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

var (
	// Question renders "?" for DuckDB and SQLite.
	Question Placeholder = func(int) string { return "?" }
	// Dollar renders "$n" for PostgreSQL.
	Dollar Placeholder = func(n int) string { return fmt.Sprintf("$%d", n) }
)

const (
	// DefaultLimit is used when a query asks for no limit.
	DefaultLimit = 50
	// MaxLimit caps a single page.
	MaxLimit = 500
)

// sortColumns maps public sort keys to columns.
var sortColumns = map[string]string{
	"email":           "email",
	"name":            "display_name",
	"events_attended": "events_attended",
	"total_spent":     "total_spent_cents",
	"first_seen_at":   "first_seen_at",
	"updated_at":      "updated_at",
}

// searchColumns maps a search type to the columns it matches.
var searchColumns = map[string][]string{
	"name":    {"display_name"},
	"email":   {"email"},
	"company": {"company"},
}

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
type WhereBuilder struct {
	ph      Placeholder
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a builder binding parameters with ph.
func NewWhereBuilder(ph Placeholder) *WhereBuilder {
	if ph == nil {
		ph = Question
	}
	return &WhereBuilder{ph: ph}
}

// next returns the placeholder for the next argument and records it.
func (wb *WhereBuilder) next(arg interface{}) string {
	wb.args = append(wb.args, arg)
	return wb.ph(len(wb.args))
}

// AddEquals adds "column = ?". Empty values are skipped.
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s = %s", column, wb.next(value)))
	return wb
}

// AddSearch adds a case-insensitive substring match over columns, ORed
// together. LIKE wildcards in term are matched literally.
func (wb *WhereBuilder) AddSearch(columns []string, term string) *WhereBuilder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return wb
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, wb.next(pattern))
	}
	wb.clauses = append(wb.clauses, "("+strings.Join(parts, " OR ")+")")
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Page appends LIMIT and OFFSET parameters and returns the fragment.
func (wb *WhereBuilder) Page(limit, offset int) string {
	return fmt.Sprintf("LIMIT %s OFFSET %s", wb.next(limit), wb.next(offset))
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// ForContacts returns a builder holding the filters of q.
func ForContacts(ph Placeholder, q models.ContactQuery) *WhereBuilder {
	wb := NewWhereBuilder(ph)
	wb.AddEquals("relationship_stage", q.Stage)
	wb.AddEquals("email_classification", q.Classification)
	if cols, ok := searchColumns[q.SearchType]; ok {
		wb.AddSearch(cols, q.Search)
	} else {
		wb.AddSearch([]string{"display_name", "email", "company"}, q.Search)
	}
	return wb
}

// OrderBy returns the ORDER BY clause for q. Email breaks ties so pages
// are stable.
func OrderBy(q models.ContactQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "email"
	}
	dir := "ASC"
	if strings.EqualFold(q.Order, "desc") {
		dir = "DESC"
	}
	if col == "email" {
		return "ORDER BY email " + dir
	}
	return fmt.Sprintf("ORDER BY %s %s, email ASC", col, dir)
}

// Normalize applies the default and maximum page size.
func Normalize(q models.ContactQuery) models.ContactQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
