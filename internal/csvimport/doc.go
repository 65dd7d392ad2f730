// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package csvimport loads contacts from CSV exports.
//
// Rows become guest records and flow through the same merger and sink as a
// platform sync:
//
//	CSV reader → Mapper (header aliases, row validation)
//	           → merge.Merger (identity key, distinct events, backfill)
//	           → sync.Sink (batches, upsert by email, PreserveStats)
//
// # Columns
//
// Headers are matched case-insensitively after trimming, with common
// aliases ("e-mail", "full name", "twitter handle", ...). Only an email
// column is required. Recognized fields:
//
//	email, name, phone, company, eth_address, solana_address, twitter,
//	linkedin, telegram, instagram, github, amount, registered_at, event, stage
//
// # Semantics
//
//   - Rows without an event column are attributed to "csv:<source>"
//   - A bad row is skipped and reported with its line number; the import
//     continues
//   - Existing contacts keep their event counters and spend; only empty
//     profile fields are backfilled
//   - The stage column applies only when the contact is new
package csvimport
