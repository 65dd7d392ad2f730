// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/crmsync/internal/models"
	syncpkg "github.com/tomtom215/crmsync/internal/sync"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// SyncStatusResponse is the body of GET /sync/status.
type SyncStatusResponse struct {
	models.SyncStatus
	LastSyncAt *time.Time         `json:"last_sync_at,omitempty"`
	LastResult *models.SyncResult `json:"last_result,omitempty"`
}

// TriggerSync runs a sync and returns its result. The request blocks until
// the run finishes.
//
// The run is detached from the request's cancellation: a client that
// disconnects or a proxy that times out does not abort a started run.
// Request values such as the request ID are kept for logging.
//
// @Summary Run a sync
// @Description Enumerates every configured calendar, merges guests into unique contacts and upserts them. Blocks until the run completes.
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.SyncResult} "Run summary"
// @Failure 409 {object} models.APIResponse "A sync is already in progress"
// @Failure 503 {object} models.APIResponse "No sources, store unavailable, or run interrupted (partial result in details)"
// @Router /api/v1/sync [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.sync.RunSync(context.WithoutCancel(r.Context()), models.TriggerManual)
	switch {
	case err == nil:
		respondSuccess(w, r, http.StatusOK, result, start)
	case errors.Is(err, syncpkg.ErrSyncInProgress):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "a sync is already in progress", nil)
	case errors.Is(err, syncpkg.ErrNoSources):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "no platform sources configured", nil)
	case errors.Is(err, syncpkg.ErrStoreUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeDatabaseError, "contact store unavailable", err)
	case result != nil:
		// Cut short by cancellation or the run timeout; the partial result is still useful.
		respondErrorDetails(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error(), result)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "sync failed", err)
	}
}

// SyncStatus reports the current state and the most recent run.
//
// @Summary Get sync status
// @Description Current state machine position, the run in flight, the last run and the next scheduled run.
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=SyncStatusResponse} "Sync status"
// @Router /api/v1/sync/status [get]
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resp := SyncStatusResponse{SyncStatus: h.sync.Status()}
	if last := h.sync.LastSyncTime(); !last.IsZero() {
		resp.LastSyncAt = &last
	}
	if resp.LastRun == nil && h.history != nil {
		runs, err := h.history.ListRuns(1)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to read run history", err)
			return
		}
		if len(runs) > 0 {
			resp.LastRun = &runs[0]
		}
	}
	if resp.LastRun != nil {
		resp.LastResult = resp.LastRun.Result
	}

	respondSuccess(w, r, http.StatusOK, resp, start)
}

// SyncRuns lists recorded runs, newest first.
//
// @Summary List sync runs
// @Description Recorded sync and import runs, newest first.
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum runs to return" default(20) maximum(200)
// @Success 200 {object} models.APIResponse{data=[]models.SyncRun} "Run history"
// @Failure 400 {object} models.APIResponse "Invalid limit"
// @Router /api/v1/sync/runs [get]
func (h *Handler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", defaultRunsLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if limit < 1 || limit > maxRunsLimit {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "limit must be between 1 and 200",
			map[string]interface{}{"field": "limit", "min": 1, "max": maxRunsLimit})
		return
	}

	runs := []models.SyncRun{}
	if h.history != nil {
		listed, err := h.history.ListRuns(limit)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to read run history", err)
			return
		}
		if listed != nil {
			runs = listed
		}
	}

	respondSuccess(w, r, http.StatusOK, runs, start)
}
