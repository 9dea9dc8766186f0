// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package main is the entry point for the Locaterra server application.
//
// Locaterra serves random populated locations on Earth, optionally paired
// with a nearby openly-licensed photograph, for geography guessing games.
// A single HTTP endpoint drives the pipeline: sample a coordinate inside a
// country's bounding box, reverse-geocode it, keep it if it is populated,
// then search two image providers around it.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Catalog: country metadata client (REST Countries-compatible)
//  3. Geocoder: forward/reverse geocoding client (Nominatim-compatible)
//  4. Sampler: rejection-sampling loop over country bounding boxes
//  5. Imagery: Wikimedia geosearch and Openverse keyword providers, alternating
//  6. Rate limiting: per-client sliding-window quota (unless disabled)
//  7. HTTP Server: REST API under /api/v1 plus Prometheus /metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (see internal/config)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Commonly set variables:
//   - HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT
//   - GEOCODER_URL, GEOCODER_CONTACT: Nominatim endpoint and policy contact
//   - COUNTRIES_URL: REST Countries endpoint
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
//   - LOG_LEVEL, LOG_FORMAT
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the supervisor tree and reports services that failed to stop
//
// # Example Usage
//
// Development with defaults:
//
//	export GEOCODER_CONTACT=you@example.com
//	./locaterra
//
// Production behind a proxy:
//
//	export ENVIRONMENT=production
//	export HTTP_HOST=0.0.0.0
//	export CORS_ORIGINS=https://game.example.com
//	export GEOCODER_CONTACT=ops@example.com
//	./locaterra
//
// # Port 4326
//
// The default port 4326 references EPSG:4326 (WGS84), the coordinate
// system the API speaks.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwhitfield/locaterra/internal/api"
	"github.com/jwhitfield/locaterra/internal/catalog"
	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/geocode"
	"github.com/jwhitfield/locaterra/internal/imagery"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/ratelimit"
	"github.com/jwhitfield/locaterra/internal/sampler"
	"github.com/jwhitfield/locaterra/internal/supervisor"
	"github.com/jwhitfield/locaterra/internal/supervisor/services"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Locaterra with supervisor tree")

	// Hot-reload the log level on config file changes. Other sections
	// require a restart.
	if path := config.FindConfigFile(); path != "" {
		err := config.WatchConfigFile(path, func() {
			newCfg, err := config.LoadWithKoanf()
			if err != nil {
				logging.Warn().Err(err).Msg("Config reload failed, keeping current settings")
				return
			}
			logging.SetLevelString(newCfg.Logging.Level)
			logging.Info().Str("level", newCfg.Logging.Level).Msg("Log level reloaded from config file")
		})
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
		}
	}

	logging.Info().
		Str("geocoder_url", cfg.Geocoder.URL).
		Str("countries_url", cfg.Countries.URL).
		Str("environment", cfg.Server.Environment).
		Bool("rate_limit", !cfg.RateLimit.Disabled).
		Msg("Configuration loaded")

	// === PIPELINE COMPONENTS ===

	catalogClient := catalog.NewCached(catalog.NewClient(&cfg.Countries), cfg.Countries.CacheTTL)
	geocoderClient := geocode.NewClient(&cfg.Geocoder)
	locationSampler := sampler.New(catalogClient, geocoderClient, &cfg.Pipeline)

	sleeper := imagery.NewSleeper()
	userAgent := fmt.Sprintf("Locaterra (%s)", cfg.Geocoder.Contact)
	openverse := imagery.NewOpenverse(&cfg.Openverse, sleeper)
	wikimedia := imagery.NewWikimedia(&cfg.Wikimedia, userAgent, cfg.Geocoder.Referer, sleeper, openverse)
	orchestrator := imagery.NewOrchestrator(wikimedia, openverse, &cfg.Pipeline, sleeper)
	logging.Info().Msg("Sampling pipeline and image providers initialized")

	// === RATE LIMITING ===

	var quotaStore *ratelimit.Store
	if cfg.RateLimit.Disabled {
		logging.Warn().Msg("Per-client rate limiting disabled (DISABLE_RATE_LIMIT=true)")
	} else {
		quotaStore = ratelimit.NewStore(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		logging.Info().
			Int("requests", quotaStore.Limit()).
			Dur("window", quotaStore.Window()).
			Msg("Per-client rate limiting enabled")
	}

	// === HTTP LAYER ===

	handler := api.NewHandler(locationSampler, orchestrator, geocoderClient, &cfg.Pipeline, version)

	chimw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         86400,
		BurstRequests:      30,
		BurstWindow:        time.Minute,
	})

	router := api.NewRouter(handler, chimw, quotaStore)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if quotaStore != nil {
		tree.AddMaintenanceService(services.NewQuotaJanitorService(quotaStore, 10*time.Minute))
		logging.Info().Msg("Rate-limit janitor service added")
	}

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
