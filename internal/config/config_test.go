// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package config

import (
	"strings"
	"testing"
	"time"
)

// validTestConfig returns a default config with the required contact set.
func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Geocoder.Contact = "ops@example.com"
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 4326 {
		t.Errorf("expected default port 4326, got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.SampleAttempts != 5 {
		t.Errorf("expected 5 sample attempts, got %d", cfg.Pipeline.SampleAttempts)
	}
	if cfg.Pipeline.FailureCap != 50 {
		t.Errorf("expected failure cap 50, got %d", cfg.Pipeline.FailureCap)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != time.Hour {
		t.Errorf("expected 100 req/hour default quota, got %d/%v",
			cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	if cfg.Geocoder.Pace != 1.0 {
		t.Errorf("expected geocoder pace 1.0, got %f", cfg.Geocoder.Pace)
	}
}

func TestValidateRequiresContact(t *testing.T) {
	cfg := defaultConfig()
	cfg.Geocoder.Contact = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing contact")
	}
	if !strings.Contains(err.Error(), "GEOCODER_CONTACT") {
		t.Errorf("expected GEOCODER_CONTACT in error, got: %v", err)
	}
}

func TestValidateAcceptsDefaultsWithContact(t *testing.T) {
	cfg := validTestConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Server.Timeout = 0 },
			wantErr: "HTTP_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidatePipelineBounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero sample attempts",
			mutate:  func(c *Config) { c.Pipeline.SampleAttempts = 0 },
			wantErr: "PIPELINE_SAMPLE_ATTEMPTS",
		},
		{
			name:    "inverted radius range",
			mutate:  func(c *Config) { c.Pipeline.MaxRadius = c.Pipeline.MinRadius - 1 },
			wantErr: "PIPELINE_MIN_RADIUS",
		},
		{
			name:    "default radius out of range",
			mutate:  func(c *Config) { c.Pipeline.DefaultRadius = c.Pipeline.MaxRadius + 1 },
			wantErr: "PIPELINE_DEFAULT_RADIUS",
		},
		{
			name:    "default retries out of range",
			mutate:  func(c *Config) { c.Pipeline.DefaultRetries = c.Pipeline.MaxRetries + 1 },
			wantErr: "PIPELINE_DEFAULT_RETRIES",
		},
		{
			name:    "zero failure cap",
			mutate:  func(c *Config) { c.Pipeline.FailureCap = 0 },
			wantErr: "PIPELINE_FAILURE_CAP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateRateLimitDisabledSkipsChecks(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimit.Disabled = true
	cfg.RateLimit.Requests = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected disabled rate limit to skip validation, got: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env      string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"GEOCODER_CONTACT", "geocoder.contact"},
		{"GEOCODER_PACE", "geocoder.pace"},
		{"WIKIMEDIA_URL", "wikimedia.url"},
		{"OPENVERSE_PAGE_SIZE", "openverse.page_size"},
		{"PIPELINE_FAILURE_CAP", "pipeline.failure_cap"},
		{"RATE_LIMIT_REQUESTS", "rate_limit.requests"},
		{"DISABLE_RATE_LIMIT", "rate_limit.disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},     // unmapped keys are skipped
		{"HOSTNAME", ""}, // unmapped keys are skipped
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.expected)
			}
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://nominatim.openstreetmap.org", false},
		{"http", "http://localhost:8080", false},
		{"with path", "https://commons.wikimedia.org/w/api.php", false},
		{"bad scheme", "ftp://example.com", true},
		{"no host", "https://", true},
		{"query string", "https://example.com/api?key=1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBaseURL(tt.url, "TEST_URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBaseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
