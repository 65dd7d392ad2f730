// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry at init via promauto.
// Packages record through the Record* helpers rather than touching the
// vectors directly so label sets stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync run metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crmsync_sync_duration_seconds",
			Help:    "Wall-clock duration of complete sync runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_sync_runs_total",
			Help: "Sync runs by final status",
		},
		[]string{"status"}, // done, partial, failed
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_sync_errors_total",
			Help: "Errors counted during sync runs by type",
		},
		[]string{"error_type"}, // rate_limited, upstream, network, malformed_record, persistence, other
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crmsync_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last completed sync run",
		},
	)

	SyncInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crmsync_sync_in_progress",
			Help: "1 while a sync run is executing",
		},
	)

	SourceEvents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crmsync_source_events",
			Help: "Events enumerated for a source in the last run",
		},
		[]string{"source"},
	)

	GuestsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_guests_fetched_total",
			Help: "Guest records fetched from the event platform",
		},
		[]string{"source"},
	)

	UniqueContacts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crmsync_unique_contacts",
			Help: "Unique contacts produced by the last merge",
		},
	)

	ContactsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_contacts_persisted_total",
			Help: "Contacts written to the store by result",
		},
		[]string{"result"}, // written, failed
	)

	// Event platform client metrics
	PlatformRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_platform_requests_total",
			Help: "HTTP requests issued to the event platform",
		},
		[]string{"endpoint", "status"},
	)

	PlatformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmsync_platform_request_duration_seconds",
			Help:    "Latency of event platform requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	PlatformRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_platform_retries_total",
			Help: "Retried event platform requests by reason",
		},
		[]string{"reason"}, // rate_limited, network
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crmsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_circuit_breaker_requests_total",
			Help: "Requests passing through a circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmsync_db_query_duration_seconds",
			Help:    "Contact store query latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_db_query_errors_total",
			Help: "Contact store query errors",
		},
		[]string{"driver", "operation"},
	)

	// HTTP API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmsync_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Event publishing
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_events_published_total",
			Help: "Sync lifecycle events published to NATS",
		},
		[]string{"topic", "result"},
	)

	// Auth
	AuthDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_auth_decisions_total",
			Help: "Authentication and authorization outcomes",
		},
		[]string{"stage", "result"},
	)
)

// RecordSyncRun records the outcome of one run.
func RecordSyncRun(duration time.Duration, status string, uniqueContacts int) {
	SyncDuration.Observe(duration.Seconds())
	SyncRuns.WithLabelValues(status).Inc()
	if status == "done" || status == "partial" {
		SyncLastSuccess.SetToCurrentTime()
		UniqueContacts.Set(float64(uniqueContacts))
	}
}

// RecordSyncError increments the error counter for errorType.
func RecordSyncError(errorType string) {
	SyncErrors.WithLabelValues(errorType).Inc()
}

// RecordPlatformRequest records one HTTP round trip. status 0 means the
// request never produced a response.
func RecordPlatformRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	PlatformRequests.WithLabelValues(endpoint, label).Inc()
	PlatformRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPlatformRetry counts a retried request.
func RecordPlatformRetry(reason string) {
	PlatformRetries.WithLabelValues(reason).Inc()
}

// RecordPersisted counts written and failed contacts of one sink call.
func RecordPersisted(written, failed int) {
	ContactsPersisted.WithLabelValues("written").Add(float64(written))
	ContactsPersisted.WithLabelValues("failed").Add(float64(failed))
}

// RecordDBQuery records store query latency and errors.
func RecordDBQuery(driver, operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(driver, operation).Inc()
	}
}

// RecordAPIRequest records one HTTP API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// RecordAuthDecision counts one authentication ("authn") or
// authorization ("authz") outcome.
func RecordAuthDecision(stage string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	AuthDecisions.WithLabelValues(stage, result).Inc()
}
