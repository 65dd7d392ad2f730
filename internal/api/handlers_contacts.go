// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/crmsync/internal/database"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/validation"
)

const defaultContactsLimit = 50

// ListContacts handles GET /contacts.
//
// Query parameters: q, search_type (name|email|company), stage,
// classification (personal|business), sort, order (asc|desc), limit
// (max 500) and offset.
//
// @Summary List contacts
// @Description Filters, sorts and pages the contact store.
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param search_type query string false "Field searched by q" Enums(name, email, company)
// @Param stage query string false "Relationship stage"
// @Param classification query string false "Email classification" Enums(personal, business)
// @Param sort query string false "Sort key" Enums(email, name, events_attended, total_spent, first_seen_at, updated_at)
// @Param order query string false "Sort order" Enums(asc, desc)
// @Param limit query int false "Page size" default(50) maximum(500)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} models.APIResponse{data=models.ContactPage} "Contacts"
// @Failure 400 {object} models.APIResponse "Invalid query"
// @Router /api/v1/contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := contactQueryFromRequest(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(q); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	page, err := h.contacts.ListContacts(r.Context(), q)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "failed to list contacts", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, page, start)
}

func contactQueryFromRequest(r *http.Request) (models.ContactQuery, error) {
	values := r.URL.Query()
	q := models.ContactQuery{
		Search:         strings.TrimSpace(values.Get("q")),
		SearchType:     strings.ToLower(values.Get("search_type")),
		Stage:          strings.ToLower(values.Get("stage")),
		Classification: strings.ToLower(values.Get("classification")),
		SortBy:         strings.ToLower(values.Get("sort")),
		Order:          strings.ToLower(values.Get("order")),
	}

	var err error
	if q.Limit, err = getIntParam(r, "limit", defaultContactsLimit); err != nil {
		return q, err
	}
	if q.Offset, err = getIntParam(r, "offset", 0); err != nil {
		return q, err
	}
	return q, nil
}

const statsCacheKey = "contacts:stats"

// ContactStats handles GET /contacts/stats. Results are cached until the
// next write or statsCacheTTL.
//
// @Summary Get contact statistics
// @Description Totals per relationship stage and email classification.
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.ContactStats} "Contact statistics"
// @Router /api/v1/contacts/stats [get]
func (h *Handler) ContactStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if stats, ok := h.statsCache.Get(statsCacheKey); ok {
		respondSuccess(w, r, http.StatusOK, stats, start)
		return
	}

	stats, err := h.contacts.Stats(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "failed to compute contact stats", err)
		return
	}
	h.statsCache.Set(statsCacheKey, stats)
	respondSuccess(w, r, http.StatusOK, stats, start)
}

// GetContact handles GET /contacts/{email}.
//
// @Summary Get a contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param email path string true "Contact email"
// @Success 200 {object} models.APIResponse{data=models.Contact} "Contact"
// @Failure 400 {object} models.APIResponse "Invalid email"
// @Failure 404 {object} models.APIResponse "Contact not found"
// @Router /api/v1/contacts/{email} [get]
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}

	contact, err := h.contacts.GetContact(r.Context(), email)
	if errors.Is(err, database.ErrContactNotFound) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "contact not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "failed to load contact", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, contact, start)
}

// UpdateStage handles PATCH /contacts/{email}/stage and returns the
// updated contact.
//
// @Summary Update a contact's relationship stage
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param email path string true "Contact email"
// @Param stage body models.UpdateStageRequest true "New stage"
// @Success 200 {object} models.APIResponse{data=models.Contact} "Updated contact"
// @Failure 400 {object} models.APIResponse "Invalid email or stage"
// @Failure 404 {object} models.APIResponse "Contact not found"
// @Router /api/v1/contacts/{email}/stage [patch]
func (h *Handler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}

	var req models.UpdateStageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	req.Stage = strings.ToLower(strings.TrimSpace(req.Stage))
	if verr := validation.ValidateStruct(req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	err := h.contacts.UpdateStage(r.Context(), email, req.Stage)
	switch {
	case errors.Is(err, database.ErrContactNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "contact not found", nil)
		return
	case errors.Is(err, database.ErrInvalidStage):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "failed to update stage", err)
		return
	}
	h.InvalidateCache()

	contact, err := h.contacts.GetContact(r.Context(), email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "failed to load contact", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, contact, start)
}

// requireEmail extracts and validates the {email} path parameter,
// writing a 400 when it is unusable.
func (h *Handler) requireEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := emailParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return "", false
	}
	if err := validation.ValidateVar(email, "required,email"); err != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "path must contain a valid email",
			map[string]interface{}{"field": "email"})
		return "", false
	}
	return email, true
}
