// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps the library behind a thread-safe singleton with a custom
// "continent" validator and error translation into the API's
// VALIDATION_ERROR response format.
//
// # Quick Start
//
//	type LocationImageRequest struct {
//	    Continent   string `validate:"omitempty,continent"`
//	    Country     string `validate:"omitempty,min=2,max=100"`
//	    ImageRadius int    `validate:"gte=100,lte=50000"`
//	    MaxRetries  int    `validate:"gte=1,lte=10"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    req := parseRequest(r)
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	        return
//	    }
//	    // proceed with valid request
//	}
//
// # Tags Used Here
//
//   - continent: one of the recognized continent names, case-insensitive
//   - latitude, longitude: coordinate ranges (built in)
//   - min/max, gte/lte: bounds on string length and numeric values
//   - omitempty: skip remaining tags when the field is zero
//
// The validator caches struct metadata, so the singleton must be shared
// rather than constructed per request.
package validation
