// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package imagery finds a representative photo for a location.
//
// Two providers cooperate: a geographic-proximity search (Wikimedia) and a
// keyword search (Openverse). The orchestrator alternates between them
// until one yields a photo or a consecutive-failure cap ends the run. The
// cap ending a run is a legitimate "no image exists for this place", not an
// error.
package imagery

import (
	"context"
	"time"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/metrics"
	"github.com/jwhitfield/locaterra/internal/models"
)

// Provider finds a photo near a coordinate. Implementations return nil
// without error when they searched successfully but found nothing.
type Provider interface {
	Name() string
	FindNearby(ctx context.Context, lat, lon float64, radius int, loc *models.Location) (*models.Photo, error)
}

// runState is the orchestrator's explicit attempt-loop state.
type runState int

const (
	stateSearching runState = iota
	stateFound
	stateExhausted
)

// Orchestrator alternates between the two providers: provider A on even
// attempts, provider B on odd ones. Each failed attempt grows the
// inter-attempt delay; attempts that errored wait longer still, since an
// erroring upstream needs more room than one that merely had no results.
type Orchestrator struct {
	providerA Provider
	providerB Provider
	cfg       *config.PipelineConfig
	sleeper   Sleeper
}

// NewOrchestrator creates an orchestrator. providerA leads.
func NewOrchestrator(providerA, providerB Provider, cfg *config.PipelineConfig, sleeper Sleeper) *Orchestrator {
	return &Orchestrator{
		providerA: providerA,
		providerB: providerB,
		cfg:       cfg,
		sleeper:   sleeper,
	}
}

// Acquire hunts for a photo near the coordinate. Returns (nil, nil) when
// the consecutive-failure cap was reached: the location genuinely has no
// reachable image right now. Only context cancellation surfaces as an
// error.
func (o *Orchestrator) Acquire(ctx context.Context, lat, lon float64, radius int, loc *models.Location) (*models.Photo, error) {
	state := stateSearching
	attempt := 0
	failures := 0

	for state == stateSearching {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		provider := o.providerA
		if attempt%2 == 1 {
			provider = o.providerB
		}

		photo, err := provider.FindNearby(ctx, lat, lon, radius, loc)
		if err == nil && photo != nil {
			state = stateFound
			metrics.RecordImageAttempt(provider.Name(), "found")
			metrics.RecordImageRun("found", failures)
			logging.Ctx(ctx).Info().
				Str("provider", provider.Name()).
				Int("attempt", attempt+1).
				Str("title", photo.Title).
				Msg("Image acquired")
			return photo, nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.RecordImageAttempt(provider.Name(), "error")
		} else {
			metrics.RecordImageAttempt(provider.Name(), "empty")
		}

		attempt++
		failures++

		if failures >= o.cfg.FailureCap {
			state = stateExhausted
			break
		}

		delay := o.attemptDelay(failures, err != nil)
		logging.Ctx(ctx).Debug().
			Str("provider", provider.Name()).
			Int("consecutive_failures", failures).
			Dur("delay", delay).
			Err(err).
			Msg("Image attempt failed, backing off")

		if serr := o.sleeper.Sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}

	metrics.RecordImageRun("exhausted", failures)
	logging.Ctx(ctx).Warn().
		Int("attempts", attempt).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("Image search exhausted, no image available for this location")
	return nil, nil
}

// attemptDelay computes the post-attempt backoff. Normal failures grow
// linearly up to a ceiling above the base; errored attempts grow without a
// ceiling because they indicate upstream distress rather than sparse data.
func (o *Orchestrator) attemptDelay(failures int, errored bool) time.Duration {
	if errored {
		return o.cfg.ErrorBaseDelay + time.Duration(failures)*o.cfg.ErrorDelayIncrement
	}
	progressive := time.Duration(failures) * o.cfg.DelayIncrement
	if progressive > o.cfg.MaxDelayIncrement {
		progressive = o.cfg.MaxDelayIncrement
	}
	return o.cfg.BaseDelay + progressive
}
