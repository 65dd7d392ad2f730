// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tomtom215/crmsync/internal/config"
)

const (
	eventsEndpoint = "/calendar/list-events"
	guestsEndpoint = "/event/get-guests"

	cursorParam   = "pagination_cursor"
	pageSizeParam = "pagination_limit"
	eventIDParam  = "event_api_id"

	defaultPageSize = 50
	defaultTimeout  = 30 * time.Second
)

// Client talks to the event platform on behalf of one source.
type Client struct {
	source      string
	baseURL     string
	keyHeader   string
	apiKey      string
	pageSize    int
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *CircuitBreaker
	eventPolicy RetryPolicy
	guestPolicy RetryPolicy
	sleep       SleepFunc
	now         func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleep replaces the wait used between retries.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithPolicies overrides the event and guest retry policies.
func WithPolicies(events, guests RetryPolicy) Option {
	return func(c *Client) {
		c.eventPolicy = events
		c.guestPolicy = guests
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *CircuitBreaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient builds a client for src. syncCfg supplies the retry policies and
// may be nil to use the defaults.
func NewClient(cfg *config.PlatformConfig, syncCfg *config.SyncConfig, src config.SourceConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		source:    src.Name,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyHeader: cfg.APIKeyHeader,
		apiKey:    src.APIKey,
		pageSize:  pageSize,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:     rate.NewLimiter(limit, burst),
		eventPolicy: DefaultEventPolicy(),
		guestPolicy: DefaultGuestPolicy(),
		sleep:       sleepContext,
		now:         time.Now,
	}
	if syncCfg != nil {
		c.eventPolicy, c.guestPolicy = PoliciesFromConfig(syncCfg)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = NewCircuitBreaker("platform-"+src.Name, BreakerSettings{})
	}
	return c
}

// Source returns the label of the source this client serves.
func (c *Client) Source() string {
	return c.source
}

// BreakerState reports the circuit breaker state for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}
