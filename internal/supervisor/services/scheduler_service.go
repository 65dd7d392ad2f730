// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the sync manager's schedule lifecycle.
// Satisfied by *sync.Manager.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService runs the periodic sync schedule under the data-layer
// supervisor.
//
// The manager owns its own goroutines; this service only ties their
// lifetime to the supervisor:
//
//  1. Serve calls Start, which schedules the startup run (if enabled) and
//     the interval ticker, then returns
//  2. Serve blocks until the supervisor cancels ctx
//  3. Stop halts the ticker and waits for a scheduled run in flight
//
// A run in flight when shutdown starts stops enumerating but still
// persists what it merged before Stop returns.
type SchedulerService struct {
	manager StartStopManager
	name    string
}

// NewSchedulerService wraps manager.
func NewSchedulerService(manager StartStopManager) *SchedulerService {
	return &SchedulerService{
		manager: manager,
		name:    "sync-scheduler",
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *SchedulerService) String() string {
	return s.name
}
