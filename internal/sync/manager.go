// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
manager.go - Sync Manager Lifecycle

Manager owns the platform sources, the contact store and the optional run
state and event publisher. It exposes:

  - RunSync(): one synchronous run, the only trigger surface
  - Start()/Stop(): periodic runs on Sync.Interval, plus an optional run at startup
  - State()/Status(): live state for the status endpoint

Thread Safety:
  - syncMu: one run at a time inside this process
  - mu: protects state, current run, last run and callbacks
  - runState lock: one run at a time across processes sharing the state dir
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/platform"
)

const tracerName = "github.com/tomtom215/crmsync/internal/sync"

// Manager coordinates sync runs.
type Manager struct {
	cfg         *config.Config
	sources     []Source
	store       ContactStore
	runState    RunStateStore
	publisher   EventPublisher
	coordinator *BatchCoordinator
	sink        *Sink
	tracer      trace.Tracer
	now         func() time.Time

	mu              sync.RWMutex
	state           models.SyncState
	current         *models.SyncRun
	lastRun         *models.SyncRun
	lastSuccess     time.Time
	nextRunAt       time.Time
	running         bool
	onSyncCompleted func(result *models.SyncResult, duration time.Duration)

	syncMu   sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithRunState enables the cross-process lock and run history.
func WithRunState(rs RunStateStore) ManagerOption {
	return func(m *Manager) { m.runState = rs }
}

// WithPublisher enables sync.completed events.
func WithPublisher(p EventPublisher) ManagerOption {
	return func(m *Manager) { m.publisher = p }
}

// WithCoordinator replaces the coordinator built from config.
func WithCoordinator(c *BatchCoordinator) ManagerOption {
	return func(m *Manager) { m.coordinator = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager for sources writing into store.
func NewManager(cfg *config.Config, sources []Source, store ContactStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:         cfg,
		sources:     sources,
		store:       store,
		coordinator: NewBatchCoordinator(cfg.Sync.BatchSize, cfg.Sync.BatchDelay),
		sink:        NewSink(store, cfg.Sync.PersistBatchSize),
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
		state:       models.SyncIdle,
	}
	for _, opt := range opts {
		opt(m)
	}

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Source())
	}
	logging.Info().
		Strs("sources", names).
		Dur("interval", cfg.Sync.Interval).
		Int("batch_size", cfg.Sync.BatchSize).
		Dur("batch_delay", cfg.Sync.BatchDelay).
		Int("persist_batch_size", cfg.Sync.PersistBatchSize).
		Msg("Sync manager config loaded")

	return m
}

// NewPlatformSources builds one platform client per enabled source.
func NewPlatformSources(cfg *config.Config, opts ...platform.Option) []Source {
	enabled := cfg.Platform.EnabledSources()
	sources := make([]Source, 0, len(enabled))
	for _, src := range enabled {
		sources = append(sources, platform.NewClient(&cfg.Platform, &cfg.Sync, src, opts...))
	}
	return sources
}

// SetOnSyncCompleted sets the callback invoked after every finished run.
func (m *Manager) SetOnSyncCompleted(callback func(result *models.SyncResult, duration time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSyncCompleted = callback
}

// State returns the current run state.
func (m *Manager) State() models.SyncState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastSyncTime returns when the last run finished without failing.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSuccess
}

// Status returns a snapshot for the status endpoint.
func (m *Manager) Status() models.SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := models.SyncStatus{State: m.state}
	if m.current != nil {
		st.InProgress = true
		st.RunID = m.current.ID
		started := m.current.StartedAt
		st.StartedAt = &started
	}
	if m.lastRun != nil {
		last := *m.lastRun
		st.LastRun = &last
	}
	if !m.nextRunAt.IsZero() {
		next := m.nextRunAt
		st.NextRunAt = &next
	}
	return st
}

func (m *Manager) setState(s models.SyncState) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		logging.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("Sync state transition")
	}
}
