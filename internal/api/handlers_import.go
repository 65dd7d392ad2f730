// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/tomtom215/crmsync/internal/csvimport"
	"github.com/tomtom215/crmsync/internal/logging"
)

// maxImportBytes bounds a CSV upload.
const maxImportBytes = 32 << 20

// ImportCSV handles POST /import/csv.
//
// The CSV is taken from the "file" field of a multipart form, or from the
// raw body for any other content type. The source label comes from the
// "source" form field or query parameter.
//
// @Summary Import contacts from CSV
// @Description Merges the rows of a CSV file and upserts them without touching existing event counters. Invalid rows are reported, not fatal.
// @Tags Import
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Security BearerAuth
// @Param file formData file false "CSV file (multipart uploads)"
// @Param source query string false "Source label recorded on imported contacts"
// @Success 200 {object} models.APIResponse{data=models.ImportResult} "Import summary"
// @Failure 400 {object} models.APIResponse "Unreadable CSV or missing email column"
// @Failure 409 {object} models.APIResponse "Another import is running"
// @Failure 503 {object} models.APIResponse "Import disabled"
// @Router /api/v1/import/csv [post]
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.importer == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "csv import is not enabled", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	source := r.URL.Query().Get("source")

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "failed to parse multipart form", nil)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "multipart form has no file field", nil)
			return
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				logging.Ctx(r.Context()).Warn().Err(cerr).Msg("Failed to close uploaded file")
			}
		}()
		body = file
		if v := r.FormValue("source"); v != "" {
			source = v
		}
	}

	result, err := h.importer.Import(r.Context(), body, source)
	if !errors.Is(err, csvimport.ErrImportInProgress) {
		// a failed import may still have written earlier batches
		h.InvalidateCache()
	}
	switch {
	case err == nil:
		respondSuccess(w, r, http.StatusOK, result, start)
	case errors.Is(err, csvimport.ErrImportInProgress):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "an import is already in progress", nil)
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "csv upload exceeds 32 MiB", nil)
			return
		}
		var details interface{}
		if result != nil {
			details = result
		}
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeImportFailed, err.Error(), details)
	}
}
