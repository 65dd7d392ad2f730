// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/crmsync/internal/csvimport"
	"github.com/tomtom215/crmsync/internal/models"
)

const uploadCSV = "email,name,event\nada@example.com,Ada,launch\n"

func multipartUpload(t *testing.T, target, source, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if source != "" {
		if err := mw.WriteField("source", source); err != nil {
			t.Fatal(err)
		}
	}
	part, err := mw.CreateFormFile("file", "guests.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportCSV(t *testing.T) {
	t.Parallel()

	ok := &models.ImportResult{RowsRead: 1, UniqueContacts: 1, Imported: 1}

	t.Run("multipart upload", func(t *testing.T) {
		t.Parallel()
		imp := &fakeImporter{result: ok}
		router := newTestRouter(t, setupStore(t), &fakeSync{}, WithImporter(imp))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, multipartUpload(t, "/api/v1/import/csv", "meetup-export", uploadCSV))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
		}
		if imp.body != uploadCSV {
			t.Errorf("importer received %q", imp.body)
		}
		if imp.source != "meetup-export" {
			t.Errorf("source = %q, want meetup-export", imp.source)
		}
		var got models.ImportResult
		decodeData(t, decodeEnvelope(t, rec), &got)
		if got.Imported != 1 {
			t.Errorf("result = %+v", got)
		}
	})

	t.Run("raw body with query source", func(t *testing.T) {
		t.Parallel()
		imp := &fakeImporter{result: ok}
		router := newTestRouter(t, setupStore(t), &fakeSync{}, WithImporter(imp))

		rec := do(t, router, http.MethodPost, "/api/v1/import/csv?source=badge-scans", uploadCSV, "Content-Type", "text/csv")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
		}
		if imp.body != uploadCSV || imp.source != "badge-scans" {
			t.Errorf("importer got body %q source %q", imp.body, imp.source)
		}
	})

	t.Run("multipart without file", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(t, setupStore(t), &fakeSync{}, WithImporter(&fakeImporter{result: ok}))

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		_ = mw.WriteField("source", "x")
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/csv", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	errCases := []struct {
		name     string
		err      error
		result   *models.ImportResult
		wantCode int
		wantErr  string
	}{
		{name: "in progress", err: csvimport.ErrImportInProgress, wantCode: http.StatusConflict, wantErr: ErrCodeConflict},
		{name: "bad header", err: csvimport.ErrNoEmailColumn, result: &models.ImportResult{}, wantCode: http.StatusBadRequest, wantErr: ErrCodeImportFailed},
		{name: "stream failure", err: errors.New("read csv: bare quote"), wantCode: http.StatusBadRequest, wantErr: ErrCodeImportFailed},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			imp := &fakeImporter{result: tt.result, err: tt.err}
			router := newTestRouter(t, setupStore(t), &fakeSync{}, WithImporter(imp))

			rec := do(t, router, http.MethodPost, "/api/v1/import/csv", uploadCSV, "Content-Type", "text/csv")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantErr)
			}
		})
	}

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(t, setupStore(t), &fakeSync{})
		rec := do(t, router, http.MethodPost, "/api/v1/import/csv", uploadCSV, "Content-Type", "text/csv")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestImportCSV_EndToEnd(t *testing.T) {
	t.Parallel()

	db := setupStore(t)
	imp := csvimport.NewImporter(db, 100)
	router := newTestRouter(t, db, &fakeSync{}, WithImporter(imp))

	csv := strings.Join([]string{
		"Email,Full Name,Company,Amount,Event",
		"dana@corp.io,Dana Scully,FBI,25,launch",
		"DANA@corp.io,,,,meetup",
		"broken,Nobody,,,",
	}, "\n")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, "/api/v1/import/csv", "conference", csv))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}

	var result models.ImportResult
	decodeData(t, decodeEnvelope(t, rec), &result)
	if result.RowsRead != 3 || result.RowsSkipped != 1 || result.Imported != 1 {
		t.Errorf("result = %+v", result)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/contacts/dana@corp.io", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET contact status = %d", rec.Code)
	}
	var c models.Contact
	decodeData(t, decodeEnvelope(t, rec), &c)
	if c.EventsAttended != 2 || c.TotalSpentCents != 2500 {
		t.Errorf("contact = %+v", c)
	}
	if c.Company == nil || *c.Company != "FBI" {
		t.Errorf("company = %v", c.Company)
	}
}
