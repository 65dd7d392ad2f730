// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package authz authorizes API requests with Casbin RBAC.
//
// The model and policy are embedded (model.conf, policy.csv). Subjects are
// roles taken from the caller's token; objects are request paths matched
// with keyMatch2; actions are HTTP methods:
//
//	viewer    GET sync status, run history and contacts
//	operator  everything a viewer can, plus POST /sync, POST /import/csv
//	          and PATCH /contacts/{email}/stage
//
// A PolicyPath in EnforcerConfig replaces the embedded policy.
package authz
