// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned while the source's circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("platform circuit breaker open")

	// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed platform response")
)

// RateLimitExhaustedError is returned after MaxAttempts consecutive 429 responses.
type RateLimitExhaustedError struct {
	Endpoint string
	Attempts int
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("%s: rate limited after %d attempts", e.Endpoint, e.Attempts)
}

// UpstreamError is a non-retryable non-2xx response.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Endpoint, e.Status, e.Body)
}

// NetworkError is returned once transient failures exhaust NetworkAttempts.
type NetworkError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ErrorType maps err to the label used for the sync error metric.
func ErrorType(err error) string {
	var (
		rl *RateLimitExhaustedError
		up *UpstreamError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &ne):
		return "network"
	case errors.As(err, &up):
		return "upstream"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "unknown"
	}
}

// transientError marks a failure that the network schedule may retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// rateLimitedError marks a 429 response.
type rateLimitedError struct {
	retryAfter string
}

func (e *rateLimitedError) Error() string { return "rate limited (HTTP 429)" }
