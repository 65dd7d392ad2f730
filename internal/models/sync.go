// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package models

import "time"

// SyncState is the lifecycle position of a run.
type SyncState string

const (
	SyncIdle           SyncState = "idle"
	SyncFetchingEvents SyncState = "fetching_events"
	SyncFetchingGuests SyncState = "fetching_guests"
	SyncMerging        SyncState = "merging"
	SyncPersisting     SyncState = "persisting"
	SyncDone           SyncState = "done"
	SyncFailed         SyncState = "failed"
)

// Terminal reports whether no further transition follows.
func (s SyncState) Terminal() bool {
	return s == SyncDone || s == SyncFailed
}

// Trigger records what started a run.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerStartup   Trigger = "startup"
	TriggerImport    Trigger = "import"
)

// SourceResult reports one source's contribution to a run.
type SourceResult struct {
	SourceName         string `json:"source_name"`
	EventCount         int    `json:"event_count"`
	GuestCount         int    `json:"guest_count"`
	UniqueContactCount int    `json:"unique_contact_count"`
	Errors             int    `json:"errors"`
}

// MaxErrorDetails caps SyncResult.ErrorDetails.
const MaxErrorDetails = 50

// SyncResult is the summary of one run. Errors counts every contained
// failure; a non-zero count does not mean the run failed.
type SyncResult struct {
	RunID               string         `json:"run_id"`
	StartedAt           time.Time      `json:"started_at"`
	FinishedAt          time.Time      `json:"finished_at"`
	PerSource           []SourceResult `json:"per_source"`
	TotalUniqueContacts int            `json:"total_unique_contacts"`
	Imported            int            `json:"imported"`
	Failed              int            `json:"failed"`
	Errors              int            `json:"errors"`
	ErrorDetails        []string       `json:"error_details,omitempty"`
}

// AddError counts err and keeps its message while under MaxErrorDetails.
func (r *SyncResult) AddError(err error) {
	r.Errors++
	if len(r.ErrorDetails) < MaxErrorDetails {
		r.ErrorDetails = append(r.ErrorDetails, err.Error())
	}
}

// SyncRun is the persisted history entry for a run.
type SyncRun struct {
	ID          string      `json:"id"`
	Trigger     Trigger     `json:"trigger"`
	State       SyncState   `json:"state"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	DurationMS  int64       `json:"duration_ms"`
	Result      *SyncResult `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// SyncStatus is the live view served by the status endpoint.
type SyncStatus struct {
	State      SyncState  `json:"state"`
	InProgress bool       `json:"in_progress"`
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	LastRun    *SyncRun   `json:"last_run,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	RowsRead       int      `json:"rows_read"`
	RowsSkipped    int      `json:"rows_skipped"`
	UniqueContacts int      `json:"unique_contacts"`
	Imported       int      `json:"imported"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors,omitempty"`
}
