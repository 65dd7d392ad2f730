// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

//go:build integration

package testinfra

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// Platform paths and parameters served by MockPlatform.
const (
	EventsPath   = "/calendar/list-events"
	GuestsPath   = "/event/get-guests"
	cursorParam  = "pagination_cursor"
	limitParam   = "pagination_limit"
	eventIDParam = "event_api_id"
)

// PlatformRequest is one request MockPlatform received.
type PlatformRequest struct {
	Path    string
	EventID string
	Cursor  string
	APIKey  string
}

// MockEvent is one event and its guest entries. Guests are raw objects in
// the platform's wire shape, e.g. {"guest":{"user_email":"a@x.com"}}.
type MockEvent struct {
	ID     string
	Name   string
	Guests []map[string]interface{}
}

// MockPlatform serves a paginated event platform API from memory.
type MockPlatform struct {
	Server *httptest.Server

	// APIKeyHeader is the header checked against APIKeys (default x-luma-api-key).
	APIKeyHeader string

	mu        sync.Mutex
	calendars map[string][]MockEvent
	requests  []PlatformRequest
	throttle  map[string]int
}

// NewMockPlatform starts a server. Each API key sees its own calendar.
func NewMockPlatform(t *testing.T) *MockPlatform {
	t.Helper()

	mp := &MockPlatform{
		APIKeyHeader: "x-luma-api-key",
		calendars:    make(map[string][]MockEvent),
		throttle:     make(map[string]int),
	}
	mp.Server = httptest.NewServer(http.HandlerFunc(mp.serve))
	t.Cleanup(mp.Server.Close)
	return mp
}

// URL returns the API root.
func (m *MockPlatform) URL() string {
	return m.Server.URL
}

// AddCalendar registers the events visible to apiKey.
func (m *MockPlatform) AddCalendar(apiKey string, events ...MockEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[apiKey] = append(m.calendars[apiKey], events...)
}

// Throttle makes the next n requests to path answer 429.
func (m *MockPlatform) Throttle(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttle[path] = n
}

// Requests returns a copy of every request received.
func (m *MockPlatform) Requests() []PlatformRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PlatformRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockPlatform) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := PlatformRequest{
		Path:    r.URL.Path,
		EventID: q.Get(eventIDParam),
		Cursor:  q.Get(cursorParam),
		APIKey:  r.Header.Get(m.APIKeyHeader),
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	if m.throttle[req.Path] > 0 {
		m.throttle[req.Path]--
		m.mu.Unlock()
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	events, ok := m.calendars[req.APIKey]
	m.mu.Unlock()

	if !ok {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	var entries []interface{}
	switch req.Path {
	case EventsPath:
		for _, ev := range events {
			entries = append(entries, map[string]interface{}{
				"api_id": ev.ID,
				"event":  map[string]interface{}{"api_id": ev.ID, "name": ev.Name},
			})
		}
	case GuestsPath:
		for _, ev := range events {
			if ev.ID != req.EventID {
				continue
			}
			for _, g := range ev.Guests {
				entries = append(entries, g)
			}
		}
	default:
		http.NotFound(w, r)
		return
	}

	writePage(w, entries, req.Cursor, q.Get(limitParam))
}

// writePage slices entries by a numeric offset cursor.
func writePage(w http.ResponseWriter, entries []interface{}, cursor, limit string) {
	offset, _ := strconv.Atoi(cursor)
	size, err := strconv.Atoi(limit)
	if err != nil || size <= 0 {
		size = 50
	}
	if offset > len(entries) {
		offset = len(entries)
	}
	end := offset + size
	if end > len(entries) {
		end = len(entries)
	}

	page := []interface{}{}
	if end > offset {
		page = entries[offset:end]
	}
	resp := map[string]interface{}{
		"entries":     page,
		"has_more":    end < len(entries),
		"next_cursor": nil,
	}
	if end < len(entries) {
		resp["next_cursor"] = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}
