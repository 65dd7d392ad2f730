// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package validation wraps go-playground/validator v10 with a shared,
// lazily built validator and readable error messages.
//
// Config sections, CSV import rows and API request bodies all validate
// through ValidateStruct:
//
//	type StageUpdate struct {
//	    Stage string `validate:"required,relationship_stage"`
//	}
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// RelationshipStages is the ordered lead pipeline a contact moves through.
var RelationshipStages = []string{"lead", "contacted", "qualified", "customer", "churned"}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// RequestValidationError collects every failed field of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors the API error envelope without importing the api package.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts the failure into a VALIDATION_ERROR payload.
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: ve.Error()}
	if len(ve.Fields) == 1 {
		f := ve.Fields[0]
		apiErr.Details = map[string]interface{}{"field": f.Field, "tag": f.Tag}
		return apiErr
	}
	fields := make([]map[string]interface{}, len(ve.Fields))
	for i, f := range ve.Fields {
		fields[i] = map[string]interface{}{"field": f.Field, "tag": f.Tag, "message": f.Message}
	}
	apiErr.Details = map[string]interface{}{"fields": fields}
	return apiErr
}

// GetValidator returns the shared validator, registering custom tags on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("relationship_stage", func(fl validator.FieldLevel) bool {
			return IsRelationshipStage(fl.Field().String())
		})
	})
	return validate
}

// IsRelationshipStage reports whether s names a pipeline stage.
func IsRelationshipStage(s string) bool {
	for _, stage := range RelationshipStages {
		if s == stage {
			return true
		}
	}
	return false
}

// ValidateStruct returns nil when s passes all of its validate tags.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translate(fe),
		}
	}
	return &RequestValidationError{Fields: out}
}

// ValidateVar validates a single value against a tag expression.
func ValidateVar(v interface{}, tag string) error {
	return GetValidator().Var(v, tag)
}

var plainMessages = map[string]string{
	"required":           "%s is required",
	"email":              "%s must be a valid email address",
	"url":                "%s must be a valid URL",
	"http_url":           "%s must be a valid http(s) URL",
	"relationship_stage": "%s must be one of: lead contacted qualified customer churned",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tmpl, ok := plainMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	unit := ""
	if fe.Kind().String() == "string" {
		unit = " characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
