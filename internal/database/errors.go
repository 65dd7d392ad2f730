// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/crmsync/internal/logging"
)

var (
	// ErrContactNotFound is returned when no contact has the requested email.
	ErrContactNotFound = errors.New("contact not found")

	// ErrInvalidStage is returned for an unknown relationship stage.
	ErrInvalidStage = errors.New("invalid relationship stage")

	// ErrUnsupportedDriver is returned by New for drivers this package does not open.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
