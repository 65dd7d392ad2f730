// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package authz

import (
	"net/http"

	"github.com/tomtom215/crmsync/internal/auth"
	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/metrics"
)

// Middleware authorizes requests against the caller's role.
type Middleware struct {
	enforcer *Enforcer
	writeErr auth.ErrorWriter
}

// NewMiddleware returns authorization middleware. It must run after
// auth.Middleware.Authenticate.
func NewMiddleware(enforcer *Enforcer, writeErr auth.ErrorWriter) *Middleware {
	return &Middleware{enforcer: enforcer, writeErr: writeErr}
}

// Authorize checks the request path and method against the policy.
func (m *Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			metrics.RecordAuthDecision("authz", false)
			m.writeErr(w, r, http.StatusForbidden, "FORBIDDEN", "no authentication context")
			return
		}

		allowed, err := m.enforcer.Enforce(claims.Role, r.URL.Path, r.Method)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			m.writeErr(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization failed")
			return
		}
		metrics.RecordAuthDecision("authz", allowed)
		if !allowed {
			logging.Ctx(r.Context()).Debug().
				Str("user", claims.Username).
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("Request denied by policy")
			m.writeErr(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}
