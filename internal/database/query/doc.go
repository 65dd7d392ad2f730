// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package query builds parameterized SQL fragments for contact reads.
//
// Both contact stores share it: the embedded store binds "?" placeholders and
// the PostgreSQL store binds "$1, $2, ...". Pick the style when creating the
// builder:
//
//	wb := query.NewWhereBuilder(query.Question)
//	wb.AddEquals("relationship_stage", "lead")
//	wb.AddSearch([]string{"display_name", "email"}, "ada")
//	where, args := wb.BuildWithPrefix()
//	// WHERE relationship_stage = ? AND (LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')
//
// ForContacts applies a models.ContactQuery in one call and OrderBy maps the
// public sort keys onto columns. Column names never come from user input;
// sort keys are looked up in a fixed table and unknown keys fall back to email.
//
// WhereBuilder instances are not thread-safe. Create one per query.
package query
