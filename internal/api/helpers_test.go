// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/database"
	"github.com/tomtom215/crmsync/internal/models"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// envelope mirrors models.APIResponse with a raw data field.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata models.Metadata `json:"metadata"`
	Error    *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data %s: %v", env.Data, err)
	}
}

func setupStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func seedContact(email, name string, class models.EmailClassification, stage string, events []string, cents int64, age time.Duration) models.Contact {
	return models.Contact{
		Email:               email,
		IdentityKey:         email,
		DisplayName:         name,
		EmailClassification: class,
		RelationshipStage:   stage,
		EventsAttended:      len(events),
		TotalSpentCents:     cents,
		AttributedEvents:    events,
		Sources:             []string{"primary"},
		FirstSeenAt:         fixedTime.Add(-age),
		LastSyncedAt:        fixedTime,
	}
}

func seedContacts(t *testing.T, db *database.DB) {
	t.Helper()
	ada := seedContact("ada@example.com", "Ada Lovelace", models.EmailBusiness, "lead", []string{"evt-1", "evt-2", "evt-3"}, 4500, 72*time.Hour)
	ada.Company = strPtr("Analytical")
	contacts := []models.Contact{
		ada,
		seedContact("bob@gmail.com", "Bob Stone", models.EmailPersonal, "customer", []string{"evt-1"}, 1000, 48*time.Hour),
		seedContact("carol@gmail.com", "Carol Jones", models.EmailPersonal, "lead", []string{"evt-2", "evt-3"}, 0, 24*time.Hour),
	}
	if err := db.UpsertContacts(context.Background(), contacts, models.UpsertOptions{}); err != nil {
		t.Fatalf("UpsertContacts() error = %v", err)
	}
}

// fakeSync is a SyncRunner returning canned results.
type fakeSync struct {
	mu       sync.Mutex
	result   *models.SyncResult
	err      error
	status   models.SyncStatus
	lastSync time.Time
	triggers []models.Trigger
	ctxErrs  []error
}

func (f *fakeSync) RunSync(ctx context.Context, trigger models.Trigger) (*models.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.result, f.err
}

func (f *fakeSync) Status() models.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSync) LastSyncTime() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSync
}

type fakeHistory struct {
	runs      []models.SyncRun
	err       error
	lastLimit int
}

func (f *fakeHistory) ListRuns(limit int) ([]models.SyncRun, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

// fakeImporter records what it was given.
type fakeImporter struct {
	mu     sync.Mutex
	body   string
	source string
	result *models.ImportResult
	err    error
}

func (f *fakeImporter) Import(_ context.Context, r io.Reader, sourceName string) (*models.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = string(data)
	f.source = sourceName
	return f.result, f.err
}

// newTestRouter builds the full route tree in auth_mode none with rate
// limiting disabled.
func newTestRouter(t *testing.T, contacts ContactReader, syncer SyncRunner, opts ...HandlerOption) http.Handler {
	t.Helper()
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	handler := NewHandler(&config.Config{}, contacts, syncer, opts...)
	return NewRouter(handler, NewChiMiddleware(cfg), nil, nil).SetupChi()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
