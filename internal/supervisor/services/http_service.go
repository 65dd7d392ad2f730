// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/crmsync/internal/logging"
)

// HTTPServer is the part of *http.Server the service drives.
//
// Tests substitute a fake; production passes the *http.Server built in
// cmd/server, which already has both methods:
//   - ListenAndServe() error
//   - Shutdown(ctx context.Context) error
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the API server under the api-layer supervisor.
//
// http.Server blocks in ListenAndServe and stops through a separate
// Shutdown call, while a suture service blocks in Serve until its context
// ends. The service bridges the two:
//
//  1. ListenAndServe runs on its own goroutine
//  2. Serve waits for the context to end or the listener to fail
//  3. On context end, Shutdown drains open requests within shutdownTimeout
//
// A listener failure (port in use, permission denied) is returned so the
// supervisor restarts the service with backoff.
//
// Example:
//
//	server := &http.Server{Addr: ":8080", Handler: router.SetupChi()}
//	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server.
//
// shutdownTimeout bounds connection draining on shutdown. It should cover
// the slowest request the API serves; POST /api/v1/sync blocks for a whole
// run, so HTTP_SHUTDOWN_TIMEOUT is usually set well above the default.
// A non-positive value means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service.
//
// It returns:
//   - a wrapped listener error when ListenAndServe fails on its own
//   - a wrapped error when Shutdown misses its deadline
//   - ctx.Err() after a clean drain, which suture treats as a normal stop
//
// http.ErrServerClosed is the expected result of Shutdown and is not
// reported.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if srv, ok := h.server.(*http.Server); ok {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		logging.Info().Msg("HTTP server stopped")
		return ctx.Err()
	}
}

// String names the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return h.name
}
