// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	_ "github.com/tomtom215/crmsync/docs"
	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/models"
)

// pingFailStore is a ContactReader whose store is down.
type pingFailStore struct{ ContactReader }

func (pingFailStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	t.Parallel()

	db := setupStore(t)
	last := fixedTime.Add(-time.Hour)
	syncer := &fakeSync{status: models.SyncStatus{State: models.SyncIdle}, lastSync: last}

	tests := []struct {
		name       string
		contacts   ContactReader
		natsUp     *bool
		wantStatus string
		wantDB     bool
	}{
		{name: "healthy", contacts: db, wantStatus: "healthy", wantDB: true},
		{name: "store down", contacts: pingFailStore{db}, wantStatus: "degraded", wantDB: false},
		{name: "nats down", contacts: db, natsUp: new(bool), wantStatus: "degraded", wantDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opts []HandlerOption
			if tt.natsUp != nil {
				up := *tt.natsUp
				opts = append(opts, WithNATSCheck(func() bool { return up }))
			}
			router := newTestRouter(t, tt.contacts, syncer, append(opts, WithVersion("1.2.3"))...)

			rec := do(t, router, http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			var health models.HealthStatus
			decodeData(t, env, &health)

			if health.Status != tt.wantStatus {
				t.Errorf("health.Status = %q, want %q", health.Status, tt.wantStatus)
			}
			if health.Database != tt.wantDB {
				t.Errorf("health.Database = %v, want %v", health.Database, tt.wantDB)
			}
			if health.Version != "1.2.3" {
				t.Errorf("health.Version = %q", health.Version)
			}
			if health.LastSyncAt == nil || !health.LastSyncAt.Equal(last) {
				t.Errorf("health.LastSyncAt = %v, want %v", health.LastSyncAt, last)
			}
			if health.Components["sync"] != "idle" {
				t.Errorf("sync component = %q, want idle", health.Components["sync"])
			}
		})
	}
}

func TestRouter_Envelope(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, setupStore(t), &fakeSync{})

	t.Run("request id echoed in header and metadata", func(t *testing.T) {
		t.Parallel()
		rec := do(t, router, http.MethodGet, "/api/v1/contacts/stats", "", "X-Request-Id", "req-abc")
		if got := rec.Header().Get("X-Request-Id"); got != "req-abc" {
			t.Errorf("X-Request-Id = %q, want req-abc", got)
		}
		env := decodeEnvelope(t, rec)
		if env.Metadata.RequestID != "req-abc" {
			t.Errorf("metadata.request_id = %q, want req-abc", env.Metadata.RequestID)
		}
		if env.Metadata.Timestamp.IsZero() {
			t.Error("metadata.timestamp is zero")
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()
		rec := do(t, router, http.MethodGet, "/api/v1/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Status != "error" || env.Error == nil || env.Error.Code != ErrCodeNotFound {
			t.Errorf("unexpected envelope %+v", env)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()
		rec := do(t, router, http.MethodDelete, "/api/v1/sync", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want 405", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Error.Code != ErrCodeMethodNotAllowed {
			t.Errorf("error code = %q", env.Error.Code)
		}
	})

	t.Run("security headers", func(t *testing.T) {
		t.Parallel()
		rec := do(t, router, http.MethodGet, "/api/v1/sync/status", "")
		for header, want := range map[string]string{
			"X-Content-Type-Options": "nosniff",
			"X-Frame-Options":        "DENY",
			"Cache-Control":          "no-store",
		} {
			if got := rec.Header().Get(header); got != want {
				t.Errorf("%s = %q, want %q", header, got, want)
			}
		}
	})

	t.Run("metrics exposition", func(t *testing.T) {
		t.Parallel()
		rec := do(t, router, http.MethodGet, "/metrics", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "crmsync_") {
			t.Error("metrics output has no crmsync_ series")
		}
	})
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	handler := NewHandler(&config.Config{}, setupStore(t), &fakeSync{})
	router := NewRouter(handler, NewChiMiddleware(cfg), nil, nil).SetupChi()

	for i := 0; i < 2; i++ {
		if rec := do(t, router, http.MethodGet, "/api/v1/sync/status", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := do(t, router, http.MethodGet, "/api/v1/sync/status", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error code = %q", env.Error.Code)
	}

	// health sits outside the limited group
	if rec := do(t, router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestNewChiMiddlewareFromSecurity(t *testing.T) {
	t.Parallel()

	m := NewChiMiddlewareFromSecurity(&config.SecurityConfig{
		RateLimitReqs:   10,
		RateLimitWindow: 30 * time.Second,
		CORSOrigins:     []string{"https://crm.example.com"},
	})
	if m.config.RateLimitRequests != 10 || m.config.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit = %d/%s", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
	if len(m.config.CORSAllowedOrigins) != 1 {
		t.Errorf("CORS origins = %v", m.config.CORSAllowedOrigins)
	}
	if m.config.LoginRequests != 5 {
		t.Errorf("login limit = %d, want default 5", m.config.LoginRequests)
	}
}

func TestRouter_SwaggerDocs(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, setupStore(t), &fakeSync{})

	rec := do(t, router, http.MethodGet, "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json status = %d", rec.Code)
	}
	var doc struct {
		Swagger string                     `json:"swagger"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	if doc.Swagger != "2.0" {
		t.Errorf("swagger = %q", doc.Swagger)
	}
	for _, path := range []string{"/health", "/api/v1/sync", "/api/v1/contacts/{email}/stage", "/api/v1/import/csv"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("doc.json missing path %s", path)
		}
	}

	rec = do(t, router, http.MethodGet, "/swagger/index.html", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Errorf("index.html status = %d", rec.Code)
	}
}
