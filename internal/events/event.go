// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package events

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/crmsync/internal/models"
)

const (
	// DefaultSubjectPrefix prefixes every subject when config leaves it empty.
	DefaultSubjectPrefix = "crmsync"

	syncCompletedSuffix = "sync.completed"
)

// SyncCompletedTopic returns the subject sync.completed events go to.
func SyncCompletedTopic(prefix string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + syncCompletedSuffix
}

// SyncCompleted is the payload of a sync.completed message.
type SyncCompleted struct {
	EventID             string                `json:"event_id"`
	RunID               string                `json:"run_id"`
	Trigger             models.Trigger        `json:"trigger"`
	State               models.SyncState      `json:"state"`
	StartedAt           time.Time             `json:"started_at"`
	CompletedAt         *time.Time            `json:"completed_at,omitempty"`
	DurationMS          int64                 `json:"duration_ms"`
	TotalUniqueContacts int                   `json:"total_unique_contacts"`
	Imported            int                   `json:"imported"`
	Failed              int                   `json:"failed"`
	Errors              int                   `json:"errors"`
	PerSource           []models.SourceResult `json:"per_source,omitempty"`
	Error               string                `json:"error,omitempty"`
	PublishedAt         time.Time             `json:"published_at"`
}

// NewSyncCompleted builds the event for a finished run.
func NewSyncCompleted(run *models.SyncRun, now time.Time) *SyncCompleted {
	ev := &SyncCompleted{
		EventID:     uuid.NewString(),
		RunID:       run.ID,
		Trigger:     run.Trigger,
		State:       run.State,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		DurationMS:  run.DurationMS,
		Error:       run.Error,
		PublishedAt: now.UTC(),
	}
	if r := run.Result; r != nil {
		ev.TotalUniqueContacts = r.TotalUniqueContacts
		ev.Imported = r.Imported
		ev.Failed = r.Failed
		ev.Errors = r.Errors
		ev.PerSource = r.PerSource
	}
	return ev
}

// Marshal encodes the event.
func (e *SyncCompleted) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalSyncCompleted decodes a sync.completed payload.
func UnmarshalSyncCompleted(data []byte) (*SyncCompleted, error) {
	var ev SyncCompleted
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
