// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package config

import (
	"strings"
	"time"
)

// Config holds all service configuration.
//
// Loading order (Load):
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (see envMappings)
//
// Config is read-only after Load and safe for concurrent reads.
type Config struct {
	Platform  PlatformConfig  `koanf:"platform"`
	Sync      SyncConfig      `koanf:"sync"`
	Database  DatabaseConfig  `koanf:"database"`
	RunState  RunStateConfig  `koanf:"runstate"`
	NATS      NATSConfig      `koanf:"nats"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SourceConfig is one calendar on the event platform. A slot without an
// API key is disabled.
type SourceConfig struct {
	Name   string `koanf:"name"`
	APIKey string `koanf:"api_key"`
}

// Enabled reports whether the slot has credentials.
func (s SourceConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// PlatformConfig describes the external event-registration API.
//
// Environment Variables:
//   - PLATFORM_BASE_URL: API root (default: https://api.lu.ma/public/v1)
//   - PLATFORM_API_KEY_HEADER: header carrying the per-source key (default: x-luma-api-key)
//   - PLATFORM_PRIMARY_NAME / PLATFORM_PRIMARY_API_KEY: first calendar
//   - PLATFORM_SECONDARY_NAME / PLATFORM_SECONDARY_API_KEY: second calendar
//   - PLATFORM_TIMEOUT: per-request timeout (default: 30s)
//   - PLATFORM_PAGE_SIZE: entries requested per page (default: 50)
//   - PLATFORM_RPS / PLATFORM_BURST: client-side request pacing
type PlatformConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,http_url"`
	APIKeyHeader      string        `koanf:"api_key_header" validate:"required"`
	Primary           SourceConfig  `koanf:"primary"`
	Secondary         SourceConfig  `koanf:"secondary"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	PageSize          int           `koanf:"page_size" validate:"gte=1,lte=100"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
}

// EnabledSources returns the configured sources in slot order, filling in a
// label for slots that only set a key.
func (p PlatformConfig) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for i, s := range []SourceConfig{p.Primary, p.Secondary} {
		if !s.Enabled() {
			continue
		}
		if strings.TrimSpace(s.Name) == "" {
			s.Name = []string{"primary", "secondary"}[i]
		}
		out = append(out, s)
	}
	return out
}

// SyncConfig controls the sync run: retry schedule, guest fan-out pacing and
// persistence batching.
type SyncConfig struct {
	Interval           time.Duration `koanf:"interval"` // 0 disables the schedule
	RunOnStartup       bool          `koanf:"run_on_startup"`
	RunTimeout         time.Duration `koanf:"run_timeout"`
	EventMaxAttempts   int           `koanf:"event_max_attempts" validate:"gte=1,lte=10"`
	GuestMaxAttempts   int           `koanf:"guest_max_attempts" validate:"gte=1,lte=10"`
	NetworkMaxAttempts int           `koanf:"network_max_attempts" validate:"gte=1,lte=10"`
	BackoffBase        time.Duration `koanf:"backoff_base"`
	BackoffMax         time.Duration `koanf:"backoff_max"`
	BatchSize          int           `koanf:"batch_size"`
	BatchDelay         time.Duration `koanf:"batch_delay"`
	PersistBatchSize   int           `koanf:"persist_batch_size" validate:"gte=1,lte=1000"`
}

// DatabaseConfig selects the contact store.
//
// Driver "duckdb" (default) and "sqlite" use Path; "postgres" uses DSN.
type DatabaseConfig struct {
	Driver    string `koanf:"driver" validate:"oneof=duckdb sqlite postgres"`
	Path      string `koanf:"path"`
	DSN       string `koanf:"dsn"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
	MaxConns  int32  `koanf:"max_conns"`
}

// RunStateConfig configures the badger store holding the run lock and history.
type RunStateConfig struct {
	Path         string        `koanf:"path"`
	InMemory     bool          `koanf:"in_memory"`
	LockTTL      time.Duration `koanf:"lock_ttl"`
	HistoryLimit int           `koanf:"history_limit" validate:"gte=1,lte=10000"`
}

// NATSConfig configures publishing of sync lifecycle events.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	StoreDir       string        `koanf:"store_dir"`
	StreamName     string        `koanf:"stream_name"`
	SubjectPrefix  string        `koanf:"subject_prefix"`
	MaxAge         time.Duration `koanf:"max_age"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// ServerConfig holds HTTP server settings. WriteTimeout must cover a full
// synchronous sync run triggered over HTTP.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig holds API authentication and rate limiting settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// TelemetryConfig toggles OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}
