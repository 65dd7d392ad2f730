// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package config loads crmsync configuration with koanf.

Layers, lowest precedence first: built-in defaults, an optional YAML file
(CONFIG_PATH, ./config.yaml, /etc/crmsync/config.yaml), then environment
variables. Only variables listed in envMappings are read, so unrelated
process environment never leaks into the config tree.

# Event Platform Sources

Up to two calendars are synced per run:

	PLATFORM_PRIMARY_NAME=Community
	PLATFORM_PRIMARY_API_KEY=...
	PLATFORM_SECONDARY_NAME=Side Events
	PLATFORM_SECONDARY_API_KEY=...

A slot without an API key is skipped. A run with no enabled slot fails before
any request is made.

# Sync Tuning

  - SYNC_EVENT_MAX_ATTEMPTS (5), SYNC_GUEST_MAX_ATTEMPTS (3): 429 retry budget per page
  - SYNC_NETWORK_MAX_ATTEMPTS (3): transport failure retry budget per page
  - SYNC_BACKOFF_BASE (1s), SYNC_BACKOFF_MAX (30s): exponential backoff bounds
  - SYNC_BATCH_SIZE (8, 5..10), SYNC_BATCH_DELAY (200ms, 100ms..300ms): guest fan-out pacing
  - SYNC_PERSIST_BATCH_SIZE (100): contacts per upsert transaction
  - SYNC_INTERVAL (6h, 0 disables), SYNC_ON_STARTUP: scheduling

# Contact Store

DB_DRIVER selects duckdb (default, DB_PATH), sqlite (DB_PATH) or postgres
(DATABASE_URL).
*/
package config
