// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package middleware provides HTTP middleware shared by the API router.
//
// The middleware here is framework-agnostic http.Handler wrappers; chi's
// own middleware (CORS, rate limiting by IP, recovery) is wired directly
// in the router.
//
//   - RequestID: assigns or propagates X-Request-ID and seeds the
//     request-scoped logger
//   - PrometheusMetrics: per-request counters, durations, and the
//     in-flight gauge
//   - Compression: pooled gzip for clients that accept it
package middleware
