// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/models"
)

// Error codes surfaced in the response envelope.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeSamplingExhausted   = "SAMPLING_EXHAUSTED"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// respondSuccess writes a success envelope with the given payload.
// meta.Timestamp is stamped here; the caller fills the rest.
func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}, meta models.Metadata) {
	meta.Timestamp = time.Now().UTC()
	writeJSON(w, r, http.StatusOK, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondError writes an error envelope with the given status and code.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	writeJSON(w, r, status, models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// writeJSON marshals the envelope, sets an FNV-1a ETag over the body, and
// writes it out. Marshal failures fall back to a plain 500 since the
// envelope itself could not be produced.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload models.APIResponse) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
		return
	}

	h := fnv.New64a()
	_, _ = h.Write(body)
	w.Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprintf("%x", h.Sum64())))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}
