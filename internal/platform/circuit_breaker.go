// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/metrics"
)

// CircuitBreaker guards one source's page requests.
//
// Only failures that say something about platform health count against the
// breaker: transport errors and 5xx. A 429 or a 4xx is a successful round
// trip as far as the breaker is concerned.
type CircuitBreaker struct {
	cb   *gobreaker.CircuitBreaker[*Page]
	name string
}

// BreakerSettings tunes the breaker. Zero values take the defaults below.
type BreakerSettings struct {
	MaxRequests  uint32        // requests allowed while half-open, default 3
	Interval     time.Duration // closed-state count reset, default 1m
	Timeout      time.Duration // open duration, default 2m
	MinRequests  uint32        // requests before tripping is considered, default 10
	FailureRatio float64       // trip threshold, default 0.6
}

// NewCircuitBreaker creates the breaker named name.
func NewCircuitBreaker(name string, s BreakerSettings) *CircuitBreaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Page](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
		IsSuccessful: countsAsHealthy,
	})

	return &CircuitBreaker{cb: cb, name: name}
}

// Execute runs fn through the breaker. A rejected call returns an error
// wrapping ErrCircuitOpen.
func (b *CircuitBreaker) Execute(fn func() (*Page, error)) (*Page, error) {
	page, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s: %v", ErrCircuitOpen, b.name, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return page, nil
}

// State returns "closed", "half-open" or "open".
func (b *CircuitBreaker) State() string {
	return stateToString(b.cb.State())
}

func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var rl *rateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	var up *UpstreamError
	if errors.As(err, &up) && up.Status < http.StatusInternalServerError {
		return true
	}
	return errors.Is(err, ErrMalformedResponse)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
