// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package sampler draws random populated locations on the globe.
//
// A sampling run picks a country (explicit, by continent, or globally at
// random), resolves the country's bounding box, then draws uniform
// coordinates inside the box until the reverse geocoder reports a populated
// address. Most of the planet is ocean or empty terrain, so the draw budget
// and the per-draw cooldowns are what keep a run both bounded and polite to
// the upstream provider.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jwhitfield/locaterra/internal/catalog"
	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/geocode"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/metrics"
	"github.com/jwhitfield/locaterra/internal/models"
)

// ErrNotFound indicates the requested country or continent matched nothing
// in the catalog.
var ErrNotFound = errors.New("sampler: no matching country")

// ErrExhausted indicates the draw budget ran out without hitting a
// populated address.
var ErrExhausted = errors.New("sampler: no populated location found")

// CountrySource supplies the country catalog.
type CountrySource interface {
	FetchAll(ctx context.Context) ([]models.Country, error)
}

// Geocoder resolves country names to bounding boxes and coordinates to
// addresses.
type Geocoder interface {
	ForwardSearch(ctx context.Context, query string) (*models.BoundingBox, error)
	ReverseLookup(ctx context.Context, lat, lon float64) (*models.Location, error)
}

// SampleOptions narrows the sampling population. Country takes precedence
// over Continent; both empty means the whole catalog.
type SampleOptions struct {
	Continent string
	Country   string
}

// Sampler draws random populated locations.
type Sampler struct {
	countries CountrySource
	geocoder  Geocoder
	cfg       *config.PipelineConfig

	mu  sync.Mutex
	rng *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a sampler.
func New(countries CountrySource, geocoder Geocoder, cfg *config.PipelineConfig) *Sampler {
	return &Sampler{
		countries: countries,
		geocoder:  geocoder,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // math/rand is fine for coordinate draws
		sleep:     sleepCtx,
	}
}

// Sample draws one random populated location.
//
// Error contract:
//   - ErrNotFound: the country/continent filter matched nothing
//   - ErrExhausted: every draw in the budget was unpopulated or failed
//   - httpclient.ErrUnavailable (wrapped): an upstream stayed down
func (s *Sampler) Sample(ctx context.Context, opts SampleOptions) (*models.Location, error) {
	countries, err := s.countries.FetchAll(ctx)
	if err != nil {
		metrics.RecordSamplerRun("error", 0)
		return nil, err
	}

	country, err := s.pickCountry(countries, opts)
	if err != nil {
		metrics.RecordSamplerRun("not_found", 0)
		return nil, err
	}

	box, err := s.geocoder.ForwardSearch(ctx, country.Name)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			metrics.RecordSamplerRun("not_found", 0)
			return nil, fmt.Errorf("country %q has no bounding box: %w", country.Name, ErrNotFound)
		}
		metrics.RecordSamplerRun("error", 0)
		return nil, err
	}

	loc, attempts, err := s.drawPopulated(ctx, country.Name, box)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			metrics.RecordSamplerRun("exhausted", attempts)
		} else {
			metrics.RecordSamplerRun("error", attempts)
		}
		return nil, err
	}

	metrics.RecordSamplerRun("success", attempts)
	logging.Ctx(ctx).Info().
		Str("country", country.Name).
		Int("attempts", attempts).
		Float64("lat", loc.Lat).
		Float64("lon", loc.Lon).
		Msg("Sampled populated location")
	return loc, nil
}

// pickCountry selects the sampling country per the options.
func (s *Sampler) pickCountry(countries []models.Country, opts SampleOptions) (*models.Country, error) {
	if len(countries) == 0 {
		return nil, fmt.Errorf("empty country catalog: %w", ErrNotFound)
	}

	if opts.Country != "" {
		c := catalog.FindByName(countries, opts.Country)
		if c == nil {
			return nil, fmt.Errorf("country %q: %w", opts.Country, ErrNotFound)
		}
		return c, nil
	}

	if opts.Continent != "" {
		regional := catalog.FilterByRegion(countries, opts.Continent)
		if len(regional) == 0 {
			return nil, fmt.Errorf("continent %q: %w", opts.Continent, ErrNotFound)
		}
		return &regional[s.intn(len(regional))], nil
	}

	return &countries[s.intn(len(countries))], nil
}

// drawPopulated runs the draw loop. Returns the accepted location and the
// number of draws spent.
//
// A draw that resolves to an address but fails the populated check costs an
// attempt and the short cooldown. A draw that fails with a provider error
// also costs an attempt but takes the longer cooldown, since retrying
// immediately against a struggling upstream only makes things worse.
func (s *Sampler) drawPopulated(ctx context.Context, country string, box *models.BoundingBox) (*models.Location, int, error) {
	for attempt := 1; attempt <= s.cfg.SampleAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, attempt - 1, ctx.Err()
		}

		lat := s.floatBetween(box.MinLat, box.MaxLat)
		lon := s.floatBetween(box.MinLon, box.MaxLon)

		loc, err := s.geocoder.ReverseLookup(ctx, lat, lon)
		switch {
		case err == nil && loc.Details != nil && loc.Details.Address.IsPopulated():
			return loc, attempt, nil

		case err == nil, errors.Is(err, geocode.ErrNotFound):
			logging.Ctx(ctx).Debug().
				Str("country", country).
				Int("attempt", attempt).
				Float64("lat", lat).
				Float64("lon", lon).
				Msg("Draw resolved to unpopulated area, redrawing")
			if attempt < s.cfg.SampleAttempts {
				if serr := s.sleep(ctx, s.cfg.UnpopulatedDelay); serr != nil {
					return nil, attempt, serr
				}
			}

		default:
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("country", country).
				Int("attempt", attempt).
				Msg("Reverse lookup failed, redrawing after cooldown")
			if attempt < s.cfg.SampleAttempts {
				if serr := s.sleep(ctx, s.cfg.ErrorDelay); serr != nil {
					return nil, attempt, serr
				}
			}
		}
	}

	return nil, s.cfg.SampleAttempts, fmt.Errorf("country %q after %d draws: %w",
		country, s.cfg.SampleAttempts, ErrExhausted)
}

func (s *Sampler) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Sampler) floatBetween(min, max float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Float64()*(max-min)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
