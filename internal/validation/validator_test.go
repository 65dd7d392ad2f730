// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package validation

import (
	"strings"
	"testing"
)

type stageRequest struct {
	Stage string `validate:"required,relationship_stage"`
}

type importRow struct {
	Email  string `validate:"required,email"`
	Name   string `validate:"max=10"`
	Amount int64  `validate:"gte=0"`
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Fatal("expected the same validator instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      interface{}
		wantFields []string
	}{
		{"valid stage", &stageRequest{Stage: "qualified"}, nil},
		{"unknown stage", &stageRequest{Stage: "archived"}, []string{"Stage"}},
		{"missing stage", &stageRequest{}, []string{"Stage"}},
		{"valid row", &importRow{Email: "a@x.com", Name: "Ada", Amount: 10}, nil},
		{"bad row", &importRow{Email: "nope", Name: "a very long name", Amount: -1}, []string{"Email", "Name", "Amount"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("got %d field errors, want %d: %v", len(verr.Fields), len(tt.wantFields), verr)
			}
			for i, f := range verr.Fields {
				if f.Field != tt.wantFields[i] {
					t.Errorf("field[%d] = %s, want %s", i, f.Field, tt.wantFields[i])
				}
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&importRow{Email: "bad"})
	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "valid email") {
		t.Errorf("message = %s", apiErr.Message)
	}
	if apiErr.Details["field"] != "Email" {
		t.Errorf("details = %v", apiErr.Details)
	}
}

func TestMessages(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&importRow{Email: "a@x.com", Name: "abcdefghijklmnop"})
	if verr == nil || verr.Fields[0].Message != "Name must be at most 10 characters" {
		t.Fatalf("unexpected: %v", verr)
	}
}

func TestIsRelationshipStage(t *testing.T) {
	t.Parallel()
	for _, s := range RelationshipStages {
		if !IsRelationshipStage(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if IsRelationshipStage("Lead") {
		t.Error("stage match must be case sensitive")
	}
}
