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

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
)

// Start begins scheduled runs. It returns immediately; runs happen in the
// background until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	logging.Info().Dur("interval", m.cfg.Sync.Interval).Bool("run_on_startup", m.cfg.Sync.RunOnStartup).Msg("Starting sync manager...")

	if m.cfg.Sync.RunOnStartup {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.runScheduled(ctx, models.TriggerStartup)
		}()
	}

	if m.cfg.Sync.Interval > 0 {
		m.wg.Add(1)
		go m.syncLoop(ctx, stop)
	} else {
		logging.Info().Msg("Scheduled sync disabled (interval is 0)")
	}
	return nil
}

// Stop ends the schedule and waits for a scheduled run in flight.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	m.wg.Wait()
	m.setNextRun(time.Time{})
	logging.Info().Msg("Sync manager stopped")
	return nil
}

func (m *Manager) syncLoop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()
	m.setNextRun(m.now().Add(m.cfg.Sync.Interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.runScheduled(ctx, models.TriggerScheduled)
			m.setNextRun(m.now().Add(m.cfg.Sync.Interval))
		}
	}
}

func (m *Manager) runScheduled(ctx context.Context, trigger models.Trigger) {
	_, err := m.RunSync(ctx, trigger)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		logging.Info().Str("trigger", string(trigger)).Msg("Skipping scheduled sync, another run is in progress")
	default:
		logging.Error().Err(err).Str("trigger", string(trigger)).Msg("Sync failed")
	}
}

func (m *Manager) setNextRun(at time.Time) {
	m.mu.Lock()
	m.nextRunAt = at
	m.mu.Unlock()
}
