// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/crmsync/internal/config"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AdminAuthenticator checks the configured admin credentials.
type AdminAuthenticator struct {
	username string
	hash     []byte
}

// NewAdminAuthenticator prepares the admin login. The configured password
// may be plaintext or an existing bcrypt hash ("$2a$", "$2b$", "$2y$").
func NewAdminAuthenticator(cfg *config.SecurityConfig) (*AdminAuthenticator, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, errors.New("admin_username and admin_password are required")
	}

	hash := []byte(cfg.AdminPassword)
	if !isBcryptHash(cfg.AdminPassword) {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}

	return &AdminAuthenticator{username: cfg.AdminUsername, hash: hash}, nil
}

// Authenticate returns the role granted to username. The admin is an operator.
func (a *AdminAuthenticator) Authenticate(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || passErr != nil {
		return "", ErrInvalidCredentials
	}
	return RoleOperator, nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
