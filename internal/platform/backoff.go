// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/crmsync/internal/config"
)

// RetryPolicy bounds the retry loop of FetchPage. Attempt counts include
// the first request.
type RetryPolicy struct {
	MaxAttempts     int // HTTP 429
	NetworkAttempts int // transport errors, 502/503/504
	BaseDelay       time.Duration
	MaxDelay        time.Duration
}

// DefaultEventPolicy is used for event enumeration.
func DefaultEventPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, NetworkAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// DefaultGuestPolicy is used for guest enumeration.
func DefaultGuestPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, NetworkAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// PoliciesFromConfig builds the event and guest policies from sync settings.
func PoliciesFromConfig(cfg *config.SyncConfig) (events, guests RetryPolicy) {
	events = RetryPolicy{
		MaxAttempts:     cfg.EventMaxAttempts,
		NetworkAttempts: cfg.NetworkMaxAttempts,
		BaseDelay:       cfg.BackoffBase,
		MaxDelay:        cfg.BackoffMax,
	}
	guests = events
	guests.MaxAttempts = cfg.GuestMaxAttempts
	return events.withDefaults(DefaultEventPolicy()), guests.withDefaults(DefaultGuestPolicy())
}

func (p RetryPolicy) withDefaults(d RetryPolicy) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.NetworkAttempts <= 0 {
		p.NetworkAttempts = d.NetworkAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	return p
}

// Delay returns the wait before retry n (1-based): BaseDelay doubled n-1
// times, capped at MaxDelay.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// rateLimitDelay applies a Retry-After header (seconds or HTTP date) when it
// is positive and below the cap.
func (p RetryPolicy) rateLimitDelay(n int, retryAfter string, now time.Time) time.Duration {
	d := p.Delay(n)
	ra := parseRetryAfter(retryAfter, now)
	if ra > 0 && ra < p.MaxDelay {
		return ra
	}
	return d
}

func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := time.Parse(time.RFC1123, v); err == nil {
		return at.Sub(now)
	}
	return 0
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
