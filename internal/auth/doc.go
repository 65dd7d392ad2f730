// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package auth authenticates API callers.
//
// Two modes are selected by security.auth_mode:
//
//   - none: every request runs as the anonymous operator
//   - jwt: requests carry "Authorization: Bearer <token>" signed with HS256
//
// Tokens are issued by POST /api/v1/auth/login after the admin credentials
// are checked with bcrypt. The role claim ("viewer" or "operator") is
// authorized per route by the authz package.
//
// # Usage
//
//	jwtManager, err := auth.NewJWTManager(&cfg.Security)
//	if err != nil {
//	    return err
//	}
//	mw := auth.NewMiddleware(cfg.Security.AuthMode, jwtManager, writeError)
//	r.Use(mw.Authenticate)
package auth
