// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package models

import "time"

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the error body of a failed request.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HealthStatus is served by /health.
type HealthStatus struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Database   bool              `json:"database_connected"`
	NATS       *bool             `json:"nats_connected,omitempty"`
	LastSyncAt *time.Time        `json:"last_sync_at,omitempty"`
	Uptime     float64           `json:"uptime_seconds"`
	Components map[string]string `json:"components,omitempty"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResponse carries an issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// UpdateStageRequest is the body of PATCH /api/v1/contacts/{email}/stage.
type UpdateStageRequest struct {
	Stage string `json:"stage" validate:"required,relationship_stage"`
}
