// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/crmsync/internal/config"
)

const testAPIKey = "key-123"

// recordingSleeper records requested delays instead of waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func (s *recordingSleeper) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Delays() {
		total += d
	}
	return total
}

func testPlatformConfig(baseURL string) *config.PlatformConfig {
	return &config.PlatformConfig{
		BaseURL:      baseURL,
		APIKeyHeader: "x-luma-api-key",
		Timeout:      5 * time.Second,
		PageSize:     50,
	}
}

func newTestClient(t *testing.T, baseURL string, sleeper *recordingSleeper, opts ...Option) *Client {
	t.Helper()
	src := config.SourceConfig{Name: "test-" + t.Name(), APIKey: testAPIKey}
	base := []Option{
		WithSleep(sleeper.Sleep),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	}
	return NewClient(testPlatformConfig(baseURL), nil, src, append(base, opts...)...)
}

// writePage writes a paginated envelope. Entries are raw JSON objects.
func writePage(w http.ResponseWriter, next string, hasMore bool, entries ...string) {
	w.Header().Set("Content-Type", "application/json")
	cursor := "null"
	if next != "" {
		cursor = fmt.Sprintf("%q", next)
	}
	fmt.Fprintf(w, `{"entries":[%s],"has_more":%t,"next_cursor":%s}`, strings.Join(entries, ","), hasMore, cursor)
}

func eventEntry(id, name string) string {
	return fmt.Sprintf(`{"api_id":%q,"event":{"api_id":%q,"name":%q,"start_at":"2025-05-01T18:00:00Z"}}`, id, id, name)
}
