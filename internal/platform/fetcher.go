// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/metrics"
)

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 4 * 1024

// Page is one page of a paginated listing.
type Page struct {
	Entries    []json.RawMessage
	NextCursor string
	HasMore    bool
}

// FetchPage retrieves one page of endpoint. cursor is omitted when empty.
// Rate limiting and transient failures are retried according to policy;
// other failures return immediately.
func (c *Client) FetchPage(ctx context.Context, endpoint string, query url.Values, cursor string, policy RetryPolicy) (*Page, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(pageSizeParam, strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set(cursorParam, cursor)
	}
	reqURL := c.baseURL + endpoint + "?" + q.Encode()

	var rateLimited, transient int
	for {
		page, err := c.breaker.Execute(func() (*Page, error) {
			return c.fetchOnce(ctx, endpoint, reqURL)
		})
		if err == nil {
			return page, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var (
			rl    *rateLimitedError
			te    *transientError
			delay time.Duration
		)
		switch {
		case errors.As(err, &rl):
			rateLimited++
			if rateLimited >= policy.MaxAttempts {
				return nil, &RateLimitExhaustedError{Endpoint: endpoint, Attempts: rateLimited}
			}
			delay = policy.rateLimitDelay(rateLimited+transient, rl.retryAfter, c.now())
			metrics.RecordPlatformRetry("rate_limited")
			logging.Warn().Str("source", c.source).Str("endpoint", endpoint).Dur("retry_delay", delay).Int("attempt", rateLimited).Int("max_attempts", policy.MaxAttempts).Msg("Platform rate limited (HTTP 429), retrying")

		case errors.As(err, &te):
			transient++
			if transient >= policy.NetworkAttempts {
				return nil, &NetworkError{Endpoint: endpoint, Attempts: transient, Err: te.err}
			}
			delay = policy.Delay(rateLimited + transient)
			metrics.RecordPlatformRetry("network")
			logging.Warn().Err(te.err).Str("source", c.source).Str("endpoint", endpoint).Dur("retry_delay", delay).Int("attempt", transient).Int("max_attempts", policy.NetworkAttempts).Msg("Platform request failed, retrying")

		default:
			return nil, err
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// fetchOnce performs a single request and classifies the outcome.
func (c *Client) fetchOnce(ctx context.Context, endpoint, reqURL string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(c.keyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordPlatformRequest(endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()
	metrics.RecordPlatformRequest(endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &rateLimitedError{retryAfter: resp.Header.Get("Retry-After")}
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		body := readBodyForError(resp.Body)
		return nil, &transientError{err: &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Body: body}}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Body: readBodyForError(resp.Body)}
	}

	var env pageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, endpoint, err)
	}

	page := &Page{Entries: env.Entries, HasMore: env.HasMore}
	if env.NextCursor != nil {
		page.NextCursor = *env.NextCursor
	}
	if page.NextCursor == "" {
		page.HasMore = false
	}
	return page, nil
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}
