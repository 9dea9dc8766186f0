// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/geo"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/models"
	"github.com/jwhitfield/locaterra/internal/sampler"
)

// LocationSampler produces one valid populated location.
type LocationSampler interface {
	Sample(ctx context.Context, opts sampler.SampleOptions) (*models.Location, error)
}

// ImageAcquirer finds a photo near a location, or nil when none exists.
type ImageAcquirer interface {
	Acquire(ctx context.Context, lat, lon float64, radius int, loc *models.Location) (*models.Photo, error)
}

// ReverseGeocoder resolves a coordinate to a structured location.
type ReverseGeocoder interface {
	ReverseLookup(ctx context.Context, lat, lon float64) (*models.Location, error)
}

// Handler holds the pipeline dependencies for the HTTP handlers.
type Handler struct {
	sampler  LocationSampler
	images   ImageAcquirer
	geocoder ReverseGeocoder
	pipeline *config.PipelineConfig
	version  string
	started  time.Time

	// outerRetryDelay scales with the retry ordinal; sleep is injected
	// so tests run without real delays.
	outerRetryDelay time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewHandler creates the handler set.
func NewHandler(s LocationSampler, images ImageAcquirer, geocoder ReverseGeocoder, pipeline *config.PipelineConfig, version string) *Handler {
	return &Handler{
		sampler:         s,
		images:          images,
		geocoder:        geocoder,
		pipeline:        pipeline,
		version:         version,
		started:         time.Now(),
		outerRetryDelay: time.Second,
		sleep:           sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LocationImage is the main endpoint: sample a random populated location
// and optionally acquire a photo near it. With lat and lon present it
// short-circuits to a pure reverse-geocode lookup.
func (h *Handler) LocationImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	q := r.URL.Query()

	_, hasLat := q["lat"]
	_, hasLon := q["lon"]
	if hasLat || hasLon {
		h.reverseLookup(w, r)
		return
	}

	req, perr := parseLocationImageRequest(r, h.pipeline)
	if perr != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, perr.message,
			map[string]interface{}{"param": perr.param})
		return
	}
	if msg, details, ok := validateRequest(req); !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, msg, details)
		return
	}

	opts := sampler.SampleOptions{Continent: req.Continent, Country: req.Country}

	var lastErr error
	for attempt := 0; attempt < req.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := h.sleep(ctx, time.Duration(attempt)*h.outerRetryDelay); err != nil {
				lastErr = err
				break
			}
			logging.Ctx(ctx).Info().
				Int("attempt", attempt+1).
				Int("max_retries", req.MaxRetries).
				Msg("Retrying pipeline run")
		}

		data, err := h.runPipeline(ctx, opts, req)
		if err == nil {
			respondSuccess(w, r, data, models.Metadata{
				ProcessingTimeMS: time.Since(start).Milliseconds(),
				Retries:          attempt,
				Version:          h.version,
			})
			return
		}

		lastErr = err
		logging.Ctx(ctx).Warn().Err(err).
			Int("attempt", attempt+1).
			Msg("Pipeline run failed")
		if !retryable(err) {
			break
		}
	}

	status, code := classifyError(lastErr)
	respondError(w, r, status, code, lastErr.Error(), nil)
}

// runPipeline is one full sample-then-acquire sequence. A nil photo with
// includeImage on is success without an image, never an error.
func (h *Handler) runPipeline(ctx context.Context, opts sampler.SampleOptions, req *locationImageRequest) (*models.LocationImageData, error) {
	loc, err := h.sampler.Sample(ctx, opts)
	if err != nil {
		return nil, err
	}

	data := &models.LocationImageData{Location: loc}
	if !req.IncludeImage {
		return data, nil
	}

	photo, err := h.images.Acquire(ctx, loc.Lat, loc.Lon, req.ImageRadius, loc)
	if err != nil {
		return nil, err
	}
	data.Image = photo
	return data, nil
}

// reverseLookup is the lat+lon bypass mode: a bare reverse geocode with no
// sampling, imagery, or retries.
func (h *Handler) reverseLookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	lat, perr := parseCoordinate(q, "lat")
	if perr == nil {
		var lon float64
		if lon, perr = parseCoordinate(q, "lon"); perr == nil {
			h.respondReverse(w, r, start, lat, lon)
			return
		}
	}
	respondError(w, r, http.StatusBadRequest, ErrCodeValidation, perr.message,
		map[string]interface{}{"param": perr.param})
}

func (h *Handler) respondReverse(w http.ResponseWriter, r *http.Request, start time.Time, lat, lon float64) {

	loc, err := h.geocoder.ReverseLookup(r.Context(), lat, lon)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Float64("lat", lat).Float64("lon", lon).
			Msg("Reverse geocoding failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
			"Reverse geocoding failed for the given coordinates", nil)
		return
	}

	respondSuccess(w, r, &models.LocationImageData{Location: loc}, models.Metadata{
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		Version:          h.version,
	})
}

// Score grades a guess against the true coordinates.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &scoreRequest{}
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"lat", &req.Lat},
		{"lon", &req.Lon},
		{"guessLat", &req.GuessLat},
		{"guessLon", &req.GuessLon},
	} {
		v, perr := parseCoordinate(q, p.name)
		if perr != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, perr.message,
				map[string]interface{}{"param": perr.param})
			return
		}
		*p.dst = v
	}

	if msg, details, ok := validateRequest(req); !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, msg, details)
		return
	}

	result := geo.Grade(req.Lat, req.Lon, req.GuessLat, req.GuessLon)
	respondSuccess(w, r, result, models.Metadata{Version: h.version})
}

// Health reports liveness with version and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]interface{}{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}, models.Metadata{Version: h.version})
}
