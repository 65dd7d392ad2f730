// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package main provides the crmsync HTTP server
//
// crmsync API exposes the contact store built from event-platform
// registrations, the sync trigger and run history, and CSV import.
//
// @title crmsync API
// @version 1.0
// @description Event-platform contact sync and deduplication service.
// @description
// @description ## Features
// @description
// @description - **Calendar sync**: events and guests from up to two calendars, paced and retried on HTTP 429
// @description - **Deduplication**: one contact per person, keyed by person id or email
// @description - **Pipeline**: relationship stages, search, sorting and paging over contacts
// @description - **CSV import**: merge spreadsheets into the same store without touching event counters
// @description
// @description ## Authentication
// @description
// @description With `AUTH_MODE=jwt`, obtain a bearer token from `/api/v1/auth/login` and send it as
// @description `Authorization: Bearer <token>`. Viewers may read; operators may also sync, import and change stages.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-03-01T12:34:56Z",
// @description     "request_id": "..."
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/crmsync/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token. Obtain via /api/v1/auth/login.
//
// @tag.name Core
// @tag.description Health and service status
//
// @tag.name Auth
// @tag.description Token issuance
//
// @tag.name Sync
// @tag.description Sync trigger, live status and run history
//
// @tag.name Contacts
// @tag.description Contact listing, lookup, statistics and pipeline stage changes
//
// @tag.name Import
// @tag.description CSV contact import
package main
