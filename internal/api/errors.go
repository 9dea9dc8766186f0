// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"errors"
	"net/http"

	"github.com/jwhitfield/locaterra/internal/httpclient"
	"github.com/jwhitfield/locaterra/internal/sampler"
)

// classifyError maps pipeline errors to an HTTP status and envelope code.
//
// NotFound is a caller mistake (unknown country, empty continent) and is
// never retried. Exhaustion and provider outages are request failures the
// outer retry loop may already have retried.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, sampler.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, sampler.ErrExhausted):
		return http.StatusInternalServerError, ErrCodeSamplingExhausted
	case errors.Is(err, httpclient.ErrUnavailable):
		return http.StatusBadGateway, ErrCodeProviderUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// retryable reports whether the outer retry loop should re-run the
// pipeline for this error. NotFound is definitive; everything else is
// worth another attempt.
func retryable(err error) bool {
	return !errors.Is(err, sampler.ErrNotFound)
}
