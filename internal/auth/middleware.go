// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/metrics"
)

// Auth modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

type contextKey int

const claimsKey contextKey = iota

// ErrorWriter writes an error response in the caller's envelope format.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware attaches Claims to authenticated requests.
type Middleware struct {
	mode     string
	jwt      *JWTManager
	writeErr ErrorWriter
}

// NewMiddleware returns the authentication middleware for mode. jwtManager
// may be nil in ModeNone.
func NewMiddleware(mode string, jwtManager *JWTManager, writeErr ErrorWriter) *Middleware {
	if mode == "" {
		mode = ModeNone
	}
	return &Middleware{mode: mode, jwt: jwtManager, writeErr: writeErr}
}

// Mode returns the active auth mode.
func (m *Middleware) Mode() string {
	return m.mode
}

// Authenticate rejects requests without a valid bearer token in ModeJWT.
// In ModeNone every request runs as the anonymous operator.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == ModeNone {
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), &Claims{Username: "anonymous", Role: RoleOperator})))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			metrics.RecordAuthDecision("authn", false)
			m.writeErr(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			metrics.RecordAuthDecision("authn", false)
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
			m.writeErr(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		metrics.RecordAuthDecision("authn", true)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the caller's claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
