// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/merge"
	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/platform"
)

const publishTimeout = 5 * time.Second

// RunSync performs one complete run and returns its summary.
//
// ErrNoSources, ErrSyncInProgress and ErrStoreUnavailable are returned
// before any work starts. Once the run starts it always produces a result;
// contained failures are counted in result.Errors.
//
// Cancelling ctx, or hitting Sync.RunTimeout, stops enumeration only. Every
// guest merged up to that point is still persisted, and the interruption is
// returned alongside the result.
func (m *Manager) RunSync(ctx context.Context, trigger models.Trigger) (*models.SyncResult, error) {
	if len(m.sources) == 0 {
		return nil, ErrNoSources
	}
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	run := &models.SyncRun{ID: uuid.NewString(), Trigger: trigger, StartedAt: m.now().UTC(), State: models.SyncIdle}

	if m.runState != nil {
		ok, err := m.runState.AcquireLock(run.ID, m.cfg.RunState.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return nil, ErrSyncInProgress
		}
		defer func() {
			if err := m.runState.ReleaseLock(run.ID); err != nil {
				logging.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to release run lock")
			}
		}()
	}

	if err := m.store.Ping(ctx); err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		metrics.RecordSyncError("store_unavailable")
		m.finish(ctx, run, nil, err)
		return nil, err
	}

	if m.cfg.Sync.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Sync.RunTimeout)
		defer cancel()
	}
	ctx = logging.ContextWithRunID(ctx, run.ID)
	ctx, span := m.tracer.Start(ctx, "sync.run", trace.WithAttributes(
		attribute.String("sync.run_id", run.ID),
		attribute.String("sync.trigger", string(trigger)),
		attribute.Int("sync.sources", len(m.sources)),
	))
	defer span.End()

	m.mu.Lock()
	m.current = run
	m.mu.Unlock()

	logging.Ctx(ctx).Info().Str("trigger", string(trigger)).Int("sources", len(m.sources)).Msg("Sync run started")

	result := m.execute(ctx, run)

	var runErr error
	if err := ctx.Err(); err != nil {
		runErr = fmt.Errorf("sync run interrupted: %w", err)
		result.AddError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}
	span.SetAttributes(
		attribute.Int("sync.unique_contacts", result.TotalUniqueContacts),
		attribute.Int("sync.imported", result.Imported),
		attribute.Int("sync.errors", result.Errors),
	)

	m.finish(ctx, run, result, runErr)
	return result, runErr
}

// execute walks every source into one Merger and persists the result.
func (m *Manager) execute(ctx context.Context, run *models.SyncRun) *models.SyncResult {
	result := &models.SyncResult{RunID: run.ID, StartedAt: run.StartedAt, PerSource: []models.SourceResult{}}
	merger := merge.New()

	for _, src := range m.sources {
		if ctx.Err() != nil {
			break
		}
		result.PerSource = append(result.PerSource, m.syncSource(ctx, src, merger, result))
	}

	m.setState(models.SyncMerging)
	contacts := merger.Contacts()
	result.TotalUniqueContacts = len(contacts)

	// Merged work is written even when enumeration was cut short.
	m.setState(models.SyncPersisting)
	persistCtx, span := m.tracer.Start(context.WithoutCancel(ctx), "sync.persist", trace.WithAttributes(attribute.Int("sync.contacts", len(contacts))))
	sinkRes := m.sink.Upsert(persistCtx, contacts, m.now().UTC(), models.UpsertOptions{})
	span.End()

	result.Imported = sinkRes.Written
	result.Failed = sinkRes.Failed
	for _, err := range sinkRes.Errors {
		result.AddError(err)
		if errors.Is(err, ErrMissingEmail) {
			metrics.RecordSyncError("missing_email")
		} else {
			metrics.RecordSyncError("persistence")
		}
	}

	result.FinishedAt = m.now().UTC()
	return result
}

// syncSource enumerates one source and folds its guests into merger.
func (m *Manager) syncSource(ctx context.Context, src Source, merger *merge.Merger, result *models.SyncResult) models.SourceResult {
	name := src.Source()
	sr := models.SourceResult{SourceName: name}
	log := logging.Ctx(ctx).With().Str("source", name).Logger()

	ctx, span := m.tracer.Start(ctx, "sync.source", trace.WithAttributes(attribute.String("sync.source", name)))
	defer span.End()

	fail := func(err error) {
		sr.Errors++
		result.AddError(err)
		metrics.RecordSyncError(platform.ErrorType(err))
	}

	m.setState(models.SyncFetchingEvents)
	events, err := src.EnumerateEvents(ctx)
	sr.EventCount = len(events)
	if err != nil {
		fail(fmt.Errorf("source %s: enumerate events: %w", name, err))
		span.RecordError(err)
		log.Warn().Err(err).Int("events", len(events)).Msg("Event enumeration incomplete, continuing with partial list")
	}
	metrics.SourceEvents.WithLabelValues(name).Set(float64(len(events)))

	m.setState(models.SyncFetchingGuests)
	err = m.coordinator.Run(ctx, src, events, func(batch []EventGuests) {
		for _, eg := range batch {
			if eg.Err != nil {
				fail(fmt.Errorf("source %s: event %s: %w", name, eg.Event.ID, eg.Err))
				log.Warn().Err(eg.Err).Str("event_id", eg.Event.ID).Int("guests", len(eg.Guests)).Msg("Guest enumeration failed")
			}
			sr.GuestCount += len(eg.Guests)
			for i := range eg.Guests {
				g := &eg.Guests[i]
				if g.Source == "" {
					g.Source = name
				}
				if err := merger.Add(g); err != nil {
					sr.Errors++
					result.AddError(fmt.Errorf("source %s: event %s: %w", name, eg.Event.ID, err))
					metrics.RecordSyncError("malformed_record")
				}
			}
		}
	})
	if err != nil {
		fail(fmt.Errorf("source %s: guest batches: %w", name, err))
	}

	sr.UniqueContactCount = merger.SourceCount(name)
	metrics.GuestsFetched.WithLabelValues(name).Add(float64(sr.GuestCount))

	log.Info().
		Int("events", sr.EventCount).
		Int("guests", sr.GuestCount).
		Int("unique_contacts", sr.UniqueContactCount).
		Int("errors", sr.Errors).
		Msg("Source synced")
	return sr
}

// runOutcome classifies a run. A run that wrote nothing and hit errors,
// or never got a result, failed. A run that wrote contacts but also hit
// errors or an interruption is partial; its state is still done.
func runOutcome(result *models.SyncResult, runErr error) (models.SyncState, string) {
	switch {
	case result == nil:
		return models.SyncFailed, "failed"
	case result.Errors > 0 && result.Imported == 0:
		return models.SyncFailed, "failed"
	case result.Errors > 0 || runErr != nil:
		return models.SyncDone, "partial"
	default:
		return models.SyncDone, "done"
	}
}

// finish records the outcome of a run that got past the lock.
func (m *Manager) finish(ctx context.Context, run *models.SyncRun, result *models.SyncResult, runErr error) {
	completed := m.now().UTC()
	run.CompletedAt = &completed
	run.DurationMS = completed.Sub(run.StartedAt).Milliseconds()
	run.Result = result

	var status string
	run.State, status = runOutcome(result, runErr)
	switch {
	case runErr != nil:
		run.Error = runErr.Error()
	case run.State == models.SyncFailed:
		run.Error = fmt.Sprintf("no contacts persisted, %d errors", result.Errors)
	}

	unique := 0
	if result != nil {
		unique = result.TotalUniqueContacts
	}
	duration := completed.Sub(run.StartedAt)
	metrics.RecordSyncRun(duration, status, unique)

	m.mu.Lock()
	m.state = run.State
	m.current = nil
	snapshot := *run
	m.lastRun = &snapshot
	if run.State == models.SyncDone {
		m.lastSuccess = completed
	}
	callback := m.onSyncCompleted
	m.mu.Unlock()

	if m.runState != nil {
		if err := m.runState.SaveRun(run); err != nil {
			logging.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to save run history")
		}
	}

	if m.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		if err := m.publisher.PublishSyncCompleted(pubCtx, run); err != nil {
			logging.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to publish sync.completed event")
		}
		cancel()
	}

	event := logging.Info()
	if runErr != nil {
		event = logging.Error().Err(runErr)
	}
	event.Str("run_id", run.ID).
		Str("status", status).
		Int("unique_contacts", unique).
		Dur("duration", duration).
		Msg("Sync run finished")

	if callback != nil && result != nil {
		callback(result, duration)
	}
}
