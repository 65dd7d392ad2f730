// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func plainError(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
	http.Error(w, code, status)
}

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFromContext(r.Context())
		if c == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(c.Username + ":" + c.Role))
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	m := newTestJWT(t)
	viewerToken, _, err := m.GenerateToken("vic", RoleViewer)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		mode       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"none mode", ModeNone, "", http.StatusOK, "anonymous:operator"},
		{"valid token", ModeJWT, "Bearer " + viewerToken, http.StatusOK, "vic:viewer"},
		{"lowercase scheme", ModeJWT, "bearer " + viewerToken, http.StatusOK, "vic:viewer"},
		{"missing header", ModeJWT, "", http.StatusUnauthorized, ""},
		{"basic scheme", ModeJWT, "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"bad token", ModeJWT, "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewMiddleware(tt.mode, m, plainError).Authenticate(claimsEcho())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
