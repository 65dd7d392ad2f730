// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"context"
	"io"
	"time"

	"github.com/tomtom215/crmsync/internal/cache"
	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/models"
)

// statsCacheTTL bounds staleness when a writer forgets to invalidate.
const statsCacheTTL = time.Minute

// SyncRunner triggers runs and reports their state. Implemented by sync.Manager.
type SyncRunner interface {
	RunSync(ctx context.Context, trigger models.Trigger) (*models.SyncResult, error)
	Status() models.SyncStatus
	LastSyncTime() time.Time
}

// RunHistory lists recorded runs. Implemented by runstate.Store.
type RunHistory interface {
	ListRuns(limit int) ([]models.SyncRun, error)
}

// ContactReader is the read and stage-update side of a contact store.
// Implemented by database.DB and pgstore.Store.
type ContactReader interface {
	Ping(ctx context.Context) error
	GetContact(ctx context.Context, email string) (*models.Contact, error)
	UpdateStage(ctx context.Context, email, stage string) error
	ListContacts(ctx context.Context, q models.ContactQuery) (*models.ContactPage, error)
	Stats(ctx context.Context) (*models.ContactStats, error)
}

// CSVImporter merges an uploaded CSV into the store. Implemented by csvimport.Importer.
type CSVImporter interface {
	Import(ctx context.Context, r io.Reader, sourceName string) (*models.ImportResult, error)
}

// Credentials checks a username and password and returns the caller's role.
type Credentials interface {
	Authenticate(username, password string) (string, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(username, role string) (string, time.Time, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health endpoint
//   - handlers_auth.go: login
//   - handlers_sync.go: trigger, status and run history
//   - handlers_contacts.go: contact queries and stage updates
//   - handlers_import.go: CSV upload
type Handler struct {
	config      *config.Config
	contacts    ContactReader
	sync        SyncRunner
	history     RunHistory
	importer    CSVImporter
	credentials Credentials
	tokens      TokenIssuer
	natsCheck   func() bool
	version     string
	startTime   time.Time
	statsCache  *cache.Cache[*models.ContactStats]
}

// HandlerOption configures optional Handler dependencies.
type HandlerOption func(*Handler)

// WithRunHistory enables GET /sync/runs.
func WithRunHistory(h RunHistory) HandlerOption {
	return func(handler *Handler) { handler.history = h }
}

// WithImporter enables POST /import/csv.
func WithImporter(i CSVImporter) HandlerOption {
	return func(handler *Handler) { handler.importer = i }
}

// WithLogin enables POST /auth/login.
func WithLogin(creds Credentials, tokens TokenIssuer) HandlerOption {
	return func(handler *Handler) {
		handler.credentials = creds
		handler.tokens = tokens
	}
}

// WithNATSCheck reports NATS connectivity in the health response.
func WithNATSCheck(check func() bool) HandlerOption {
	return func(handler *Handler) { handler.natsCheck = check }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) HandlerOption {
	return func(handler *Handler) { handler.version = v }
}

// InvalidateCache drops cached aggregates. Call it after anything writes
// contacts outside the API, such as a sync run.
func (h *Handler) InvalidateCache() {
	h.statsCache.Clear()
}

// NewHandler creates the API handler. contacts and syncMgr are required.
func NewHandler(cfg *config.Config, contacts ContactReader, syncMgr SyncRunner, opts ...HandlerOption) *Handler {
	h := &Handler{
		config:    cfg,
		contacts:  contacts,
		sync:      syncMgr,
		version:    "dev",
		startTime:  time.Now(),
		statsCache: cache.New[*models.ContactStats](statsCacheTTL),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
