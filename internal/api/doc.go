// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package api provides the HTTP REST API layer for crmsync.

Routes are served by a chi router with request IDs, panic recovery, CORS,
per-IP rate limiting and OpenTelemetry spans on every request. All JSON
responses use one envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": ..., "request_id": ..., "query_time_ms": ...},
	  "error": {"code": ..., "message": ..., "details": ...}
	}

Endpoints:

  - GET  /health                        liveness plus contact store ping
  - GET  /metrics                       Prometheus exposition
  - POST /api/v1/auth/login             exchange admin credentials for a JWT
  - POST /api/v1/sync                   run a sync and return its SyncResult
  - GET  /api/v1/sync/status            current state and the last run
  - GET  /api/v1/sync/runs              run history, newest first
  - GET  /api/v1/contacts               filtered, sorted, paged contacts
  - GET  /api/v1/contacts/stats         totals per stage and classification
  - GET  /api/v1/contacts/{email}       one contact
  - PATCH /api/v1/contacts/{email}/stage move a contact along the pipeline
  - POST /api/v1/import/csv             merge and upsert an uploaded CSV

Everything under /api/v1 except login passes through the auth package's
Authenticate middleware and the authz package's casbin enforcer. In
auth_mode "none" every caller is treated as an operator.

Usage:

	handler := api.NewHandler(cfg, store, manager,
	    api.WithRunHistory(runState),
	    api.WithImporter(importer),
	)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromSecurity(&cfg.Security), authn, authorizer)
	srv := &http.Server{Addr: ":8080", Handler: router.SetupChi()}
*/
package api
