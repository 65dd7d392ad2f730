// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchPage_RateLimitedThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writePage(w, "", false, eventEntry("evt-1", "Launch"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(t, srv.URL, sleeper)

	page, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	if err != nil {
		t.Fatalf("FetchPage() error = %v, want nil", err)
	}
	if len(page.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(page.Entries))
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if got := sleeper.Delays(); !reflect.DeepEqual(got, want) {
		t.Errorf("delays = %v, want %v", got, want)
	}
}

func TestFetchPage_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(t, srv.URL, sleeper)

	_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	var rl *RateLimitExhaustedError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want *RateLimitExhaustedError", err)
	}
	if rl.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", rl.Attempts)
	}
	if got := calls.Load(); got != 5 {
		t.Errorf("calls = %d, want 5", got)
	}
	if got := sleeper.Total(); got != 15*time.Second {
		t.Errorf("total wait = %v, want 15s", got)
	}
}

func TestFetchPage_BackoffTerminatesWithinBound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	policy := RetryPolicy{MaxAttempts: 10, NetworkAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
	sleeper := &recordingSleeper{}
	c := newTestClient(t, srv.URL, sleeper)

	_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", policy)
	if err == nil {
		t.Fatal("FetchPage() error = nil, want exhaustion")
	}

	delays := sleeper.Delays()
	if len(delays) != policy.MaxAttempts-1 {
		t.Fatalf("waits = %d, want %d", len(delays), policy.MaxAttempts-1)
	}
	for i, d := range delays {
		if d > policy.MaxDelay {
			t.Errorf("delay[%d] = %v exceeds cap", i, d)
		}
	}
	bound := time.Duration(policy.MaxAttempts-1) * policy.MaxDelay
	if sleeper.Total() > bound {
		t.Errorf("total wait %v exceeds bound %v", sleeper.Total(), bound)
	}
}

func TestFetchPage_RetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		retryAfter string
		want       time.Duration
	}{
		{"seconds below cap replace delay", "3", 3 * time.Second},
		{"value above cap is ignored", "120", time.Second},
		{"garbage is ignored", "soon", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set("Retry-After", tt.retryAfter)
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				writePage(w, "", false)
			}))
			defer srv.Close()

			sleeper := &recordingSleeper{}
			c := newTestClient(t, srv.URL, sleeper)
			if _, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy()); err != nil {
				t.Fatalf("FetchPage() error = %v", err)
			}
			if got := sleeper.Delays(); len(got) != 1 || got[0] != tt.want {
				t.Errorf("delays = %v, want [%v]", got, tt.want)
			}
		})
	}
}

func TestFetchPage_TransientStatusRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writePage(w, "", false)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(t, srv.URL, sleeper)
	if _, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultGuestPolicy()); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestFetchPage_NetworkExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(t, srv.URL, sleeper)

	_, err := c.FetchPage(context.Background(), guestsEndpoint, nil, "", DefaultGuestPolicy())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if ne.Attempts != 3 || calls.Load() != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3/3", ne.Attempts, calls.Load())
	}
	var up *UpstreamError
	if !errors.As(err, &up) || up.Status != http.StatusServiceUnavailable {
		t.Errorf("cause = %v, want upstream 503", ne.Err)
	}
	if ErrorType(err) != "network" {
		t.Errorf("ErrorType = %q, want network", ErrorType(err))
	}
}

func TestFetchPage_TransportErrorRetried(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(t, url, sleeper)

	_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if len(sleeper.Delays()) != 2 {
		t.Errorf("waits = %d, want 2", len(sleeper.Delays()))
	}
}

func TestFetchPage_UpstreamErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(t, srv.URL, sleeper)

	_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if up.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", up.Status)
	}
	if up.Body != "invalid api key" {
		t.Errorf("Body = %q", up.Body)
	}
	if calls.Load() != 1 || len(sleeper.Delays()) != 0 {
		t.Errorf("calls = %d, waits = %d, want 1/0", calls.Load(), len(sleeper.Delays()))
	}
}

func TestFetchPage_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &recordingSleeper{})
	_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchPage_RequestShape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-luma-api-key"); got != testAPIKey {
			t.Errorf("api key header = %q", got)
		}
		q := r.URL.Query()
		if q.Get(pageSizeParam) != "50" {
			t.Errorf("page size = %q, want 50", q.Get(pageSizeParam))
		}
		if q.Get(cursorParam) != "cur-2" {
			t.Errorf("cursor = %q, want cur-2", q.Get(cursorParam))
		}
		if q.Get(eventIDParam) != "evt-9" {
			t.Errorf("event id = %q", q.Get(eventIDParam))
		}
		writePage(w, "cur-3", true)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &recordingSleeper{})
	page, err := c.FetchPage(context.Background(), guestsEndpoint, map[string][]string{eventIDParam: {"evt-9"}}, "cur-2", DefaultGuestPolicy())
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if !page.HasMore || page.NextCursor != "cur-3" {
		t.Errorf("page = %+v", page)
	}
}

func TestFetchPage_EmptyCursorEndsPagination(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePage(w, "", true)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &recordingSleeper{})
	page, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.HasMore {
		t.Error("HasMore = true with empty next cursor")
	}
}

func TestFetchPage_ContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, srv.URL, &recordingSleeper{}, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))

	start := time.Now()
	_, err := c.FetchPage(ctx, eventsEndpoint, nil, "", DefaultEventPolicy())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not interrupt the wait")
	}
}

func TestFetchPage_CircuitOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	breaker := NewCircuitBreaker("test-open", BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Hour})
	c := newTestClient(t, srv.URL, &recordingSleeper{}, WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
		var up *UpstreamError
		if !errors.As(err, &up) {
			t.Fatalf("call %d: error = %v, want *UpstreamError", i, err)
		}
	}
	if breaker.State() != "open" {
		t.Fatalf("breaker state = %s, want open", breaker.State())
	}

	_, err := c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRateLimitsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	breaker := NewCircuitBreaker("test-429", BreakerSettings{MinRequests: 2, FailureRatio: 0.5})
	c := newTestClient(t, srv.URL, &recordingSleeper{}, WithBreaker(breaker))
	_, _ = c.FetchPage(context.Background(), eventsEndpoint, nil, "", DefaultEventPolicy())

	if breaker.State() != "closed" {
		t.Errorf("breaker state = %s, want closed", breaker.State())
	}
}
