// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/crmsync/internal/auth"
	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/validation"
)

// Login exchanges admin credentials for a bearer token.
//
// @Summary Log in
// @Description Exchanges the admin credentials for a bearer token carrying the operator role. Only mounted in jwt auth mode.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Admin credentials"
// @Success 200 {object} models.APIResponse{data=models.LoginResponse} "Token issued"
// @Failure 400 {object} models.APIResponse "Malformed body"
// @Failure 401 {object} models.APIResponse "Invalid credentials"
// @Failure 404 {object} models.APIResponse "Authentication disabled"
// @Failure 429 {object} models.APIResponse "Too many login attempts"
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.credentials == nil || h.tokens == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "authentication is disabled", nil)
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	role, err := h.credentials.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Warn().
				Str("username", sanitizeLogValue(req.Username)).
				Str("remote_addr", r.RemoteAddr).
				Msg("Failed login attempt")
			respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid username or password", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "login failed", err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.Username, role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to issue token", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("username", sanitizeLogValue(req.Username)).Str("role", role).Msg("User logged in")
	respondSuccess(w, r, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  req.Username,
		Role:      role,
	}, start)
}
