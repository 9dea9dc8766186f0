// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"location": {...}, "image": {...}},
//	  "metadata": {
//	    "timestamp": "2026-08-30T12:00:00Z",
//	    "processing_time_ms": 2150,
//	    "retries": 0
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "imageRadius must be at most 50000",
//	    "details": {"field": "imageRadius"}
//	  },
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// ProcessingTimeMS covers the whole pipeline run including inter-attempt
// delays, so values in the seconds range are normal for rare locations.
// Retries counts how many times the outer retry loop re-ran the pipeline.
type Metadata struct {
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMS int64     `json:"processing_time_ms,omitempty"`
	Retries          int       `json:"retries,omitempty"`
	Version          string    `json:"version,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - NOT_FOUND: unknown country or empty continent
//   - SAMPLING_EXHAUSTED: no populated coordinate found within the attempt budget
//   - PROVIDER_UNAVAILABLE: an upstream provider failed after retries
//   - RATE_LIMIT_EXCEEDED: per-client hourly quota exceeded
//   - METHOD_NOT_ALLOWED: non-GET request to a GET-only endpoint
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LocationImageData is the payload of a successful location-image round.
// Image is null when the round ran with includeImage=false or when the
// orchestrator exhausted its attempt cap without finding a photo.
type LocationImageData struct {
	Location *Location `json:"location"`
	Image    *Photo    `json:"image"`
}
