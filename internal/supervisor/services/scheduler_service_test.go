// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*SchedulerService)(nil)

type fakeScheduler struct {
	startErr error
	stopErr  error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (f *fakeScheduler) Start(context.Context) error {
	f.starts.Add(1)
	return f.startErr
}

func (f *fakeScheduler) Stop() error {
	f.stops.Add(1)
	return f.stopErr
}

func TestSchedulerService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		startErr  error
		stopErr   error
		wantErr   error
		wantStops int32
	}{
		{name: "start then stop on cancel", wantErr: context.DeadlineExceeded, wantStops: 1},
		{name: "start failure", startErr: errors.New("sync manager is already running"), wantStops: 0},
		{name: "stop failure", stopErr: errors.New("sync manager is not running"), wantStops: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mgr := &fakeScheduler{startErr: tt.startErr, stopErr: tt.stopErr}
			svc := NewSchedulerService(mgr)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			err := svc.Serve(ctx)

			switch {
			case tt.startErr != nil:
				if !errors.Is(err, tt.startErr) {
					t.Errorf("Serve() error = %v, want start error", err)
				}
			case tt.stopErr != nil:
				if !errors.Is(err, tt.stopErr) {
					t.Errorf("Serve() error = %v, want stop error", err)
				}
			default:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Serve() error = %v, want %v", err, tt.wantErr)
				}
			}
			if mgr.starts.Load() != 1 {
				t.Errorf("Start called %d times, want 1", mgr.starts.Load())
			}
			if mgr.stops.Load() != tt.wantStops {
				t.Errorf("Stop called %d times, want %d", mgr.stops.Load(), tt.wantStops)
			}
		})
	}

	if got := NewSchedulerService(&fakeScheduler{}).String(); got != "sync-scheduler" {
		t.Errorf("String() = %q", got)
	}
}
