// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/crmsync/internal/config"
)

func TestAdminAuthenticator(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	for _, password := range []string{"hunter2", string(hashed)} {
		a, err := NewAdminAuthenticator(&config.SecurityConfig{AdminUsername: "admin", AdminPassword: password})
		if err != nil {
			t.Fatalf("NewAdminAuthenticator() error = %v", err)
		}

		tests := []struct {
			name     string
			user     string
			pass     string
			wantRole string
			wantErr  bool
		}{
			{"valid", "admin", "hunter2", RoleOperator, false},
			{"wrong password", "admin", "hunter3", "", true},
			{"wrong user", "root", "hunter2", "", true},
			{"empty", "", "", "", true},
		}
		for _, tt := range tests {
			role, err := a.Authenticate(tt.user, tt.pass)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("%s: error = %v, want ErrInvalidCredentials", tt.name, err)
				}
				continue
			}
			if err != nil || role != tt.wantRole {
				t.Errorf("%s: Authenticate() = %q, %v", tt.name, role, err)
			}
		}
	}
}

func TestNewAdminAuthenticator_Missing(t *testing.T) {
	t.Parallel()

	if _, err := NewAdminAuthenticator(&config.SecurityConfig{AdminUsername: "admin"}); err == nil {
		t.Fatal("expected error without password")
	}
}
