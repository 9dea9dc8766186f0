// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package metrics provides Prometheus instrumentation for the pipeline:
//   - Upstream provider request latency and errors
//   - Sampler attempt counts and outcomes
//   - Orchestrator attempts, outcomes, and consecutive-failure distribution
//   - API endpoint latency and throughput
//   - Rate limit rejections
//   - Country catalog cache hit rate
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream Provider Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream provider HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream provider HTTP requests",
		},
		[]string{"provider", "outcome"}, // "success", "error"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// Sampler Metrics
	SamplerAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sampler_attempts_per_run",
			Help:    "Coordinate draws consumed per sampling run",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	SamplerOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sampler_runs_total",
			Help: "Total sampling runs by outcome",
		},
		[]string{"outcome"}, // "success", "exhausted", "not_found", "error"
	)

	// Orchestrator Metrics
	ImageAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_attempts_total",
			Help: "Image acquisition attempts by provider and outcome",
		},
		[]string{"provider", "outcome"}, // "found", "empty", "error"
	)

	ImageConsecutiveFailures = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_consecutive_failures",
			Help:    "Consecutive failed attempts before an acquisition run ended",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 40, 50},
		},
	)

	ImageRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_runs_total",
			Help: "Image acquisition runs by terminal state",
		},
		[]string{"state"}, // "found", "exhausted"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Catalog Cache Metrics
	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Country catalog cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "stale"
	)
)

// RecordUpstreamRequest records one upstream HTTP request.
func RecordUpstreamRequest(provider string, success bool, duration time.Duration) {
	UpstreamRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	outcome := "success"
	if !success {
		outcome = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordSamplerRun records one sampling run.
func RecordSamplerRun(outcome string, attempts int) {
	SamplerOutcomes.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		SamplerAttempts.Observe(float64(attempts))
	}
}

// RecordImageAttempt records one orchestrator attempt.
func RecordImageAttempt(provider, outcome string) {
	ImageAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordImageRun records a finished acquisition run.
func RecordImageRun(state string, consecutiveFailures int) {
	ImageRunsTotal.WithLabelValues(state).Inc()
	ImageConsecutiveFailures.Observe(float64(consecutiveFailures))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate limit rejection.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordCatalogCacheLookup records one catalog cache lookup.
func RecordCatalogCacheLookup(result string) {
	CatalogCacheLookups.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState exports a breaker state change.
func SetCircuitBreakerState(provider string, state int) {
	CircuitBreakerState.WithLabelValues(provider).Set(float64(state))
}

// StatusCodeLabel formats an HTTP status code for the status_code label.
func StatusCodeLabel(code int) string {
	return strconv.Itoa(code)
}
