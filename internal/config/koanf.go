// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/locaterra/config.yaml",
	"/etc/locaterra/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        4326,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
			CORSOrigins: []string{"*"},
		},
		Geocoder: GeocoderConfig{
			URL:           "https://nominatim.openstreetmap.org",
			Contact:       "",
			Referer:       "",
			Pace:          1.0, // provider usage policy: max 1 req/s
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
		},
		Countries: CountriesConfig{
			URL:           "https://restcountries.com/v3.1",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			CacheTTL:      24 * time.Hour,
		},
		Wikimedia: WikimediaConfig{
			URL:           "https://commons.wikimedia.org/w/api.php",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			Limit:         5,
			RadiusDelay:   time.Second,
		},
		Openverse: OpenverseConfig{
			URL:           "https://api.openverse.org/v1/images/",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			PageSize:      20,
			QueryDelay:    500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			SampleAttempts:      5,
			UnpopulatedDelay:    time.Second,
			ErrorDelay:          3 * time.Second,
			DefaultRadius:       5000,
			MinRadius:           100,
			MaxRadius:           50000,
			DefaultRetries:      3,
			MinRetries:          1,
			MaxRetries:          10,
			FailureCap:          50,
			BaseDelay:           2 * time.Second,
			DelayIncrement:      time.Second,
			MaxDelayIncrement:   10 * time.Second,
			ErrorBaseDelay:      5 * time.Second,
			ErrorDelayIncrement: 2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Hour,
			Disabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
//
// Precedence: ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// GEOCODER_CONTACT -> geocoder.contact
	// RATE_LIMIT_REQUESTS -> rate_limit.requests
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile reports the config file path LoadWithKoanf would use,
// or empty string when only defaults and environment apply.
func FindConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when they arrive from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - GEOCODER_URL -> geocoder.url
//   - GEOCODER_CONTACT -> geocoder.contact
//   - PIPELINE_FAILURE_CAP -> pipeline.failure_cap
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",
		"cors_origins": "server.cors_origins",

		// Geocoder mappings
		"geocoder_url":            "geocoder.url",
		"geocoder_contact":        "geocoder.contact",
		"geocoder_referer":        "geocoder.referer",
		"geocoder_pace":           "geocoder.pace",
		"geocoder_timeout":        "geocoder.timeout",
		"geocoder_retry_attempts": "geocoder.retry_attempts",
		"geocoder_retry_delay":    "geocoder.retry_delay",

		// Country catalog mappings
		"countries_url":            "countries.url",
		"countries_timeout":        "countries.timeout",
		"countries_retry_attempts": "countries.retry_attempts",
		"countries_retry_delay":    "countries.retry_delay",
		"countries_cache_ttl":      "countries.cache_ttl",

		// Wikimedia mappings
		"wikimedia_url":            "wikimedia.url",
		"wikimedia_timeout":        "wikimedia.timeout",
		"wikimedia_retry_attempts": "wikimedia.retry_attempts",
		"wikimedia_retry_delay":    "wikimedia.retry_delay",
		"wikimedia_limit":          "wikimedia.limit",
		"wikimedia_radius_delay":   "wikimedia.radius_delay",

		// Openverse mappings
		"openverse_url":            "openverse.url",
		"openverse_timeout":        "openverse.timeout",
		"openverse_retry_attempts": "openverse.retry_attempts",
		"openverse_retry_delay":    "openverse.retry_delay",
		"openverse_page_size":      "openverse.page_size",
		"openverse_query_delay":    "openverse.query_delay",

		// Pipeline mappings
		"pipeline_sample_attempts":       "pipeline.sample_attempts",
		"pipeline_unpopulated_delay":     "pipeline.unpopulated_delay",
		"pipeline_error_delay":           "pipeline.error_delay",
		"pipeline_default_radius":        "pipeline.default_radius",
		"pipeline_min_radius":            "pipeline.min_radius",
		"pipeline_max_radius":            "pipeline.max_radius",
		"pipeline_default_retries":       "pipeline.default_retries",
		"pipeline_min_retries":           "pipeline.min_retries",
		"pipeline_max_retries":           "pipeline.max_retries",
		"pipeline_failure_cap":           "pipeline.failure_cap",
		"pipeline_base_delay":            "pipeline.base_delay",
		"pipeline_delay_increment":       "pipeline.delay_increment",
		"pipeline_max_delay_increment":   "pipeline.max_delay_increment",
		"pipeline_error_base_delay":      "pipeline.error_base_delay",
		"pipeline_error_delay_increment": "pipeline.error_delay_increment",

		// Rate limit mappings
		"rate_limit_requests": "rate_limit.requests",
		"rate_limit_window":   "rate_limit.window",
		"disable_rate_limit":  "rate_limit.disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when accessing
// configuration during reloads.
//
//	err := config.WatchConfigFile(path, func() {
//	    newCfg, err := config.LoadWithKoanf()
//	    if err != nil {
//	        logging.Warn().Err(err).Msg("Config reload failed")
//	        return
//	    }
//	    logging.SetLevelString(newCfg.Logging.Level)
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
