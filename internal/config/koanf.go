// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/crmsync/config.yaml",
	"/etc/crmsync/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			BaseURL:           "https://api.lu.ma/public/v1",
			APIKeyHeader:      "x-luma-api-key",
			Timeout:           30 * time.Second,
			PageSize:          50,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Sync: SyncConfig{
			Interval:           6 * time.Hour,
			RunOnStartup:       false,
			RunTimeout:         30 * time.Minute,
			EventMaxAttempts:   5,
			GuestMaxAttempts:   3,
			NetworkMaxAttempts: 3,
			BackoffBase:        time.Second,
			BackoffMax:         30 * time.Second,
			BatchSize:          8,
			BatchDelay:         200 * time.Millisecond,
			PersistBatchSize:   100,
		},
		Database: DatabaseConfig{
			Driver:    "duckdb",
			Path:      "/data/crmsync.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
			MaxConns:  10,
		},
		RunState: RunStateConfig{
			Path:         "/data/runstate",
			LockTTL:      time.Hour,
			HistoryLimit: 50,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			Host:           "127.0.0.1",
			Port:           4222,
			StoreDir:       "/data/nats/jetstream",
			StreamName:     "CRMSYNC",
			SubjectPrefix:  "crmsync",
			MaxAge:         7 * 24 * time.Hour,
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    35 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			AuthMode:        "none",
			JWTIssuer:       "crmsync",
			TokenTTL:        12 * time.Hour,
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "crmsync",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
//
// Layers, lowest priority first:
//
//  1. defaultConfig(), loaded through the structs provider
//  2. the YAML file at CONFIG_PATH, or the first of DefaultConfigPaths that exists
//  3. environment variables listed in envMappings
//
// A .env file is not read here. main loads it into the environment first
// without overwriting variables that are already set, so its values land in
// layer 3 and override the YAML file.
//
// Example config.yaml:
//
//	platform:
//	  primary:
//	    api_key: "..."
//	sync:
//	  interval: 6h
//	  persist_batch_size: 100
//	database:
//	  driver: sqlite
//	  path: /data/crmsync.db
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Event platform
	"platform_base_url":          "platform.base_url",
	"platform_api_key_header":    "platform.api_key_header",
	"platform_primary_name":      "platform.primary.name",
	"platform_primary_api_key":   "platform.primary.api_key",
	"platform_secondary_name":    "platform.secondary.name",
	"platform_secondary_api_key": "platform.secondary.api_key",
	"platform_timeout":           "platform.timeout",
	"platform_page_size":         "platform.page_size",
	"platform_rps":               "platform.requests_per_second",
	"platform_burst":             "platform.burst",

	// Sync
	"sync_interval":             "sync.interval",
	"sync_on_startup":           "sync.run_on_startup",
	"sync_run_timeout":          "sync.run_timeout",
	"sync_event_max_attempts":   "sync.event_max_attempts",
	"sync_guest_max_attempts":   "sync.guest_max_attempts",
	"sync_network_max_attempts": "sync.network_max_attempts",
	"sync_backoff_base":         "sync.backoff_base",
	"sync_backoff_max":          "sync.backoff_max",
	"sync_batch_size":           "sync.batch_size",
	"sync_batch_delay":          "sync.batch_delay",
	"sync_persist_batch_size":   "sync.persist_batch_size",

	// Contact store
	"db_driver":         "database.driver",
	"db_path":           "database.path",
	"database_url":      "database.dsn",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"db_max_conns":      "database.max_conns",

	// Run state
	"runstate_path":      "runstate.path",
	"runstate_in_memory": "runstate.in_memory",
	"sync_lock_ttl":      "runstate.lock_ttl",
	"sync_history_limit": "runstate.history_limit",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_host":           "nats.host",
	"nats_port":           "nats.port",
	"nats_store_dir":      "nats.store_dir",
	"nats_stream":         "nats.stream_name",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_max_age":        "nats.max_age",

	// HTTP server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"token_ttl":           "security.token_ttl",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Telemetry
	"otel_enabled":      "telemetry.enabled",
	"otel_service_name": "telemetry.service_name",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
