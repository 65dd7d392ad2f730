// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/crmsync/internal/auth"
)

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	tests := []struct {
		role   string
		path   string
		method string
		want   bool
	}{
		{"viewer", "/api/v1/contacts", "GET", true},
		{"viewer", "/api/v1/contacts/a@x.com", "GET", true},
		{"viewer", "/api/v1/contacts/stats", "GET", true},
		{"viewer", "/api/v1/sync/status", "GET", true},
		{"viewer", "/api/v1/sync/runs", "GET", true},
		{"viewer", "/api/v1/sync", "POST", false},
		{"viewer", "/api/v1/contacts/a@x.com/stage", "PATCH", false},
		{"viewer", "/api/v1/import/csv", "POST", false},
		{"operator", "/api/v1/sync", "POST", true},
		{"operator", "/api/v1/contacts/a@x.com/stage", "PATCH", true},
		{"operator", "/api/v1/import/csv", "POST", true},
		{"operator", "/api/v1/contacts", "GET", true},
		{"operator", "/api/v1/contacts", "DELETE", false},
		{"guest", "/api/v1/contacts", "GET", false},
	}

	for _, tt := range tests {
		got, err := e.Enforce(tt.role, tt.path, tt.method)
		if err != nil {
			t.Fatalf("Enforce(%s %s %s) error = %v", tt.role, tt.method, tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Enforce(%s %s %s) = %v, want %v", tt.role, tt.method, tt.path, got, tt.want)
		}
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, viewer, /api/v1/contacts, GET\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if ok, _ := e.Enforce("viewer", "/api/v1/sync/status", "GET"); ok {
		t.Error("file policy should replace the embedded one")
	}
	if ok, _ := e.Enforce("viewer", "/api/v1/contacts", "GET"); !ok {
		t.Error("file policy rule not applied")
	}

	if _, err := NewEnforcer(&EnforcerConfig{PolicyPath: filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Error("expected error for missing policy file")
	}
}

func TestMiddleware_Authorize(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatal(err)
	}
	writeErr := func(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
		http.Error(w, code, status)
	}
	mw := NewMiddleware(e, writeErr)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		claims *auth.Claims
		method string
		path   string
		want   int
	}{
		{"viewer read", &auth.Claims{Role: auth.RoleViewer}, http.MethodGet, "/api/v1/contacts", http.StatusNoContent},
		{"viewer trigger", &auth.Claims{Role: auth.RoleViewer}, http.MethodPost, "/api/v1/sync", http.StatusForbidden},
		{"operator trigger", &auth.Claims{Role: auth.RoleOperator}, http.MethodPost, "/api/v1/sync", http.StatusNoContent},
		{"no claims", nil, http.MethodGet, "/api/v1/contacts", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.claims != nil {
				req = req.WithContext(auth.WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			mw.Authorize(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
