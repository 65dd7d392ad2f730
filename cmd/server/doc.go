// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package main is the entry point for the crmsync server.

crmsync pulls event registrations from up to two calendars on an event
platform, collapses guests into one contact per email address and upserts
the result into a contact store. A REST API exposes the contacts, the sync
status and a manual trigger.

# Application Architecture

The server runs under a Suture v4 supervision tree:

	RootSupervisor ("crmsync")
	├── DataSupervisor ("data-layer")
	│   ├── Sync scheduler (periodic runs)
	│   └── Run-state compactor (badger value log GC)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Embedded NATS server (optional)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: .env file, then Koanf v2 (defaults, YAML, environment)
 2. Logging: zerolog with JSON/console output modes
 3. Tracing: OpenTelemetry stdout exporter (optional)
 4. Contact store: DuckDB, SQLite or PostgreSQL
 5. Run state: BadgerDB run lock and run history
 6. Events: embedded NATS server, JetStream stream, Watermill publisher (optional)
 7. Sync manager: one platform client per configured calendar
 8. Authentication: JWT login plus Casbin role checks, or no-auth mode
 9. HTTP Server: Chi router with middleware stack

# Configuration

	Priority: Environment variables > .env file > Config file > Defaults

Core environment variables:

	# Event platform (at least one calendar)
	PLATFORM_PRIMARY_API_KEY=<key>
	PLATFORM_SECONDARY_API_KEY=<key>

	# Store
	DB_DRIVER=duckdb             # duckdb, sqlite or postgres
	DB_PATH=/data/crmsync.duckdb
	DATABASE_URL=postgres://...  # postgres only

	# Server
	HTTP_PORT=8080
	LOG_LEVEL=info
	AUTH_MODE=none               # none or jwt

# API Documentation

Swagger UI is served at /swagger/index.html and the OpenAPI document at
/swagger/doc.json. The docs package is generated from the handler
annotations:

	swag init -g cmd/server/docs.go -o docs

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor drains the HTTP
server within HTTP_SHUTDOWN_TIMEOUT and the scheduler waits for any run in
flight. Deferred closers then flush the tracer and close the stores.
*/
package main
