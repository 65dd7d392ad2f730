// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/crmsync/internal/validation"
)

// Guest fan-out bounds. Outside these the platform's rate ceiling is either
// hit constantly or the run crawls.
const (
	minBatchSize  = 5
	maxBatchSize  = 10
	minBatchDelay = 100 * time.Millisecond
	maxBatchDelay = 300 * time.Millisecond
)

// Validate checks the loaded configuration. Missing sources are not a
// validation error here: the service can start and serve reads, and the sync
// run itself refuses to start without a source.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateBackoff(); err != nil {
		return err
	}
	if err := c.validateBatching(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateSources() error {
	p, s := c.Platform.Primary, c.Platform.Secondary
	if p.Enabled() && s.Enabled() && strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(s.Name)) && p.Name != "" {
		return fmt.Errorf("PLATFORM_PRIMARY_NAME and PLATFORM_SECONDARY_NAME must differ, both are %q", p.Name)
	}
	return nil
}

func (c *Config) validateBackoff() error {
	if c.Sync.BackoffBase <= 0 {
		return fmt.Errorf("SYNC_BACKOFF_BASE must be positive")
	}
	if c.Sync.BackoffMax < c.Sync.BackoffBase {
		return fmt.Errorf("SYNC_BACKOFF_MAX (%v) must be >= SYNC_BACKOFF_BASE (%v)", c.Sync.BackoffMax, c.Sync.BackoffBase)
	}
	return nil
}

func (c *Config) validateBatching() error {
	if c.Sync.BatchSize < minBatchSize || c.Sync.BatchSize > maxBatchSize {
		return fmt.Errorf("SYNC_BATCH_SIZE must be between %d and %d", minBatchSize, maxBatchSize)
	}
	if c.Sync.BatchDelay < minBatchDelay || c.Sync.BatchDelay > maxBatchDelay {
		return fmt.Errorf("SYNC_BATCH_DELAY must be between %v and %v", minBatchDelay, maxBatchDelay)
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("SYNC_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required when DB_DRIVER=%s", c.Database.Driver)
		}
	}
	if !c.RunState.InMemory && c.RunState.Path == "" {
		return fmt.Errorf("RUNSTATE_PATH is required unless RUNSTATE_IN_MEMORY=true")
	}
	if c.RunState.LockTTL <= 0 {
		return fmt.Errorf("SYNC_LOCK_TTL must be positive")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer && !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must use the nats:// or tls:// scheme, got %q", c.NATS.URL)
	}
	if c.NATS.StreamName == "" || c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS_STREAM and NATS_SUBJECT_PREFIX are required when NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

const minJWTSecretLength = 32

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	case "jwt":
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h")
	}
	return nil
}
