// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/crmsync/internal/models"
)

const healthPingTimeout = 2 * time.Second

// Health reports liveness, store connectivity and the last successful sync.
// The response is 200 even when degraded; status says which.
//
// @Summary Get service health
// @Description Returns liveness, contact store connectivity, broker state and the last successful sync. Always 200; the status field reports degradation.
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	dbConnected := h.contacts != nil && h.contacts.Ping(ctx) == nil

	health := models.HealthStatus{
		Status:     "healthy",
		Version:    h.version,
		Database:   dbConnected,
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: map[string]string{"database": "ok"},
	}
	if !dbConnected {
		health.Status = "degraded"
		health.Components["database"] = "unreachable"
	}

	if h.natsCheck != nil {
		connected := h.natsCheck()
		health.NATS = &connected
		health.Components["nats"] = "ok"
		if !connected {
			health.Status = "degraded"
			health.Components["nats"] = "unreachable"
		}
	}

	if h.sync != nil {
		health.Components["sync"] = string(h.sync.Status().State)
		if last := h.sync.LastSyncTime(); !last.IsZero() {
			health.LastSyncAt = &last
		}
	}

	respondSuccess(w, r, http.StatusOK, health, start)
}
