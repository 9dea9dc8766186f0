// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package config loads and validates application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: override any setting
//
// Configuration Categories:
//
//  1. Upstream providers:
//     - Geocoder: forward/reverse geocoding (Nominatim-compatible)
//     - Countries: country catalog (REST Countries-compatible)
//     - Wikimedia: geographic proximity image search (MediaWiki geosearch)
//     - Openverse: keyword image search
//
//  2. Pipeline: sampling attempts, radius bounds, retry bounds, orchestrator
//     delays and safety cap
//
//  3. Server & API: HTTP server settings, CORS, per-client rate limiting
//
//  4. Observability: log level and format
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
package config

import "time"

// Config holds all application configuration loaded from environment
// variables and config files.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Geocoder  GeocoderConfig  `koanf:"geocoder"`
	Countries CountriesConfig `koanf:"countries"`
	Wikimedia WikimediaConfig `koanf:"wikimedia"`
	Openverse OpenverseConfig `koanf:"openverse"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
//
// The default port 4326 references EPSG:4326 (WGS84), the coordinate
// system the API speaks.
//
// Environment Variables:
//   - HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT
//   - ENVIRONMENT: development or production
//   - CORS_ORIGINS: comma-separated allowed origins
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// GeocoderConfig holds forward/reverse geocoding provider settings.
//
// Contact is REQUIRED: the upstream provider enforces its usage policy by
// inspecting the identifying headers, and deployments without a reachable
// contact address risk being blocked. A missing contact is a configuration
// defect caught at startup, not a runtime error.
//
// Environment Variables:
//   - GEOCODER_URL: base URL (default: https://nominatim.openstreetmap.org)
//   - GEOCODER_CONTACT: contact email or URL embedded in the User-Agent
//   - GEOCODER_REFERER: Referer header value
//   - GEOCODER_PACE: max requests per second against the provider
type GeocoderConfig struct {
	URL           string        `koanf:"url"`
	Contact       string        `koanf:"contact"`
	Referer       string        `koanf:"referer"`
	Pace          float64       `koanf:"pace"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// CountriesConfig holds country catalog provider settings.
// The catalog is near-static, so responses are cached for CacheTTL.
type CountriesConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
}

// WikimediaConfig holds geographic proximity image search settings.
// RadiusDelay paces successive geosearch radii against upstream limits.
type WikimediaConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	Limit         int           `koanf:"limit"`
	RadiusDelay   time.Duration `koanf:"radius_delay"`
}

// OpenverseConfig holds keyword image search settings.
// QueryDelay paces successive keyword queries.
type OpenverseConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	PageSize      int           `koanf:"page_size"`
	QueryDelay    time.Duration `koanf:"query_delay"`
}

// PipelineConfig holds the pipeline's sampling and orchestration knobs.
//
// The orchestrator delays preserve the availability-over-latency tradeoff:
// a rare location can legitimately take FailureCap attempts with growing
// backoff before the pipeline reports "no image".
type PipelineConfig struct {
	// SampleAttempts is the coordinate draw budget per sampling run.
	SampleAttempts int `koanf:"sample_attempts"`

	// UnpopulatedDelay is the cooldown after a draw that resolved to an
	// unpopulated address; ErrorDelay is the longer cooldown after a draw
	// that failed with a provider error.
	UnpopulatedDelay time.Duration `koanf:"unpopulated_delay"`
	ErrorDelay       time.Duration `koanf:"error_delay"`

	// Image search radius bounds in meters.
	DefaultRadius int `koanf:"default_radius"`
	MinRadius     int `koanf:"min_radius"`
	MaxRadius     int `koanf:"max_radius"`

	// Outer request-level retry bounds.
	DefaultRetries int `koanf:"default_retries"`
	MinRetries     int `koanf:"min_retries"`
	MaxRetries     int `koanf:"max_retries"`

	// FailureCap is the orchestrator's consecutive-failure safety cap.
	FailureCap int `koanf:"failure_cap"`

	// Orchestrator inter-attempt delays.
	BaseDelay           time.Duration `koanf:"base_delay"`
	DelayIncrement      time.Duration `koanf:"delay_increment"`
	MaxDelayIncrement   time.Duration `koanf:"max_delay_increment"`
	ErrorBaseDelay      time.Duration `koanf:"error_base_delay"`
	ErrorDelayIncrement time.Duration `koanf:"error_delay_increment"`
}

// RateLimitConfig holds the per-client request quota.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS: quota per window (default: 100)
//   - RATE_LIMIT_WINDOW: rolling window length (default: 1h)
//   - DISABLE_RATE_LIMIT: disable the quota entirely (testing only)
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Disabled bool          `koanf:"disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

// Load reads configuration with layered precedence:
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path in CONFIG_PATH env var)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
