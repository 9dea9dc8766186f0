// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package api provides the HTTP surface: a chi router, request parsing
// and validation, the per-client quota, and the handlers that drive the
// location and imagery pipeline.
//
// Endpoints:
//
//	GET /api/v1/location-image   sample a location, optionally acquire a photo
//	GET /api/v1/score            grade a guess against the true coordinates
//	GET /api/v1/health           liveness with version and uptime
//	GET /metrics                 Prometheus exposition
//
// All responses use the models.APIResponse envelope. Error codes:
// VALIDATION_ERROR, NOT_FOUND, SAMPLING_EXHAUSTED, PROVIDER_UNAVAILABLE,
// RATE_LIMIT_EXCEEDED, METHOD_NOT_ALLOWED, INTERNAL_ERROR.
package api
