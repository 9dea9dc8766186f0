// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/validation"
)

// locationImageRequest holds the parsed query parameters of the main
// endpoint. Bounds follow the product contract; defaults come from config.
type locationImageRequest struct {
	Continent    string `validate:"omitempty,continent"`
	Country      string `validate:"omitempty,min=2,max=100"`
	IncludeImage bool
	ImageRadius  int `validate:"gte=100,lte=50000"`
	MaxRetries   int `validate:"gte=1,lte=10"`
}

// scoreRequest holds the parsed query parameters of the score endpoint.
type scoreRequest struct {
	Lat      float64 `validate:"latitude"`
	Lon      float64 `validate:"longitude"`
	GuessLat float64 `validate:"latitude"`
	GuessLon float64 `validate:"longitude"`
}

// parseError is a 400-worthy parameter parse failure.
type parseError struct {
	param   string
	message string
}

func (e *parseError) Error() string { return e.message }

func badParam(param, format string, args ...interface{}) *parseError {
	return &parseError{param: param, message: fmt.Sprintf(format, args...)}
}

// parseLocationImageRequest extracts and type-checks the query parameters.
// Validation of ranges and allowed values happens separately via the
// validator so all range failures share the same error shape.
func parseLocationImageRequest(r *http.Request, cfg *config.PipelineConfig) (*locationImageRequest, *parseError) {
	q := r.URL.Query()

	req := &locationImageRequest{
		Continent:    q.Get("continent"),
		Country:      q.Get("country"),
		IncludeImage: parseBoolish(q.Get("includeImage")),
		ImageRadius:  cfg.DefaultRadius,
		MaxRetries:   cfg.DefaultRetries,
	}

	if raw := q.Get("imageRadius"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badParam("imageRadius", "imageRadius must be an integer, got %q", raw)
		}
		req.ImageRadius = v
	}

	if raw := q.Get("maxRetries"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badParam("maxRetries", "maxRetries must be an integer, got %q", raw)
		}
		req.MaxRetries = v
	}

	return req, nil
}

// parseBoolish treats true, 1, and absent as true; anything else is false.
func parseBoolish(raw string) bool {
	return raw == "" || raw == "true" || raw == "1"
}

// parseCoordinate parses a required float parameter.
func parseCoordinate(q map[string][]string, name string) (float64, *parseError) {
	values, ok := q[name]
	if !ok || len(values) == 0 || values[0] == "" {
		return 0, badParam(name, "%s is required", name)
	}
	v, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return 0, badParam(name, "%s must be a number, got %q", name, values[0])
	}
	return v, nil
}

// validateRequest runs the struct validator and converts failures to the
// envelope's VALIDATION_ERROR shape.
func validateRequest(s interface{}) (string, map[string]interface{}, bool) {
	verr := validation.ValidateStruct(s)
	if verr == nil {
		return "", nil, true
	}
	apiErr := verr.ToAPIError()
	return apiErr.Message, apiErr.Details, false
}
