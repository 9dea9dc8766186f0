// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateGeocoder(); err != nil {
		return err
	}

	if err := c.validateUpstreams(); err != nil {
		return err
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}

	if err := c.validateRateLimit(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateGeocoder validates geocoding provider configuration.
// The contact requirement is deliberate: the upstream enforces its usage
// policy via the identifying headers, and an anonymous deployment risks
// being blocked for every user behind it.
func (c *Config) validateGeocoder() error {
	if err := validateBaseURL(c.Geocoder.URL, "GEOCODER_URL"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Geocoder.Contact) == "" {
		return fmt.Errorf("GEOCODER_CONTACT is required: set a reachable email or URL identifying this deployment")
	}
	if c.Geocoder.Pace <= 0 {
		return fmt.Errorf("GEOCODER_PACE must be positive")
	}
	return c.validateRetryPolicy(c.Geocoder.RetryAttempts, "GEOCODER_RETRY_ATTEMPTS")
}

// validateUpstreams validates the remaining upstream client configurations
func (c *Config) validateUpstreams() error {
	if err := validateBaseURL(c.Countries.URL, "COUNTRIES_URL"); err != nil {
		return err
	}
	if err := validateBaseURL(c.Wikimedia.URL, "WIKIMEDIA_URL"); err != nil {
		return err
	}
	if err := validateBaseURL(c.Openverse.URL, "OPENVERSE_URL"); err != nil {
		return err
	}
	if c.Wikimedia.Limit < 1 || c.Wikimedia.Limit > 500 {
		return fmt.Errorf("WIKIMEDIA_LIMIT must be between 1 and 500")
	}
	if c.Openverse.PageSize < 1 || c.Openverse.PageSize > 500 {
		return fmt.Errorf("OPENVERSE_PAGE_SIZE must be between 1 and 500")
	}
	return nil
}

// validatePipeline validates sampling and orchestration bounds
func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if p.SampleAttempts < 1 {
		return fmt.Errorf("PIPELINE_SAMPLE_ATTEMPTS must be at least 1")
	}
	if p.MinRadius < 1 || p.MaxRadius < p.MinRadius {
		return fmt.Errorf("PIPELINE_MIN_RADIUS and PIPELINE_MAX_RADIUS must form a valid range")
	}
	if p.DefaultRadius < p.MinRadius || p.DefaultRadius > p.MaxRadius {
		return fmt.Errorf("PIPELINE_DEFAULT_RADIUS must be between %d and %d", p.MinRadius, p.MaxRadius)
	}
	if p.MinRetries < 1 || p.MaxRetries < p.MinRetries {
		return fmt.Errorf("PIPELINE_MIN_RETRIES and PIPELINE_MAX_RETRIES must form a valid range")
	}
	if p.DefaultRetries < p.MinRetries || p.DefaultRetries > p.MaxRetries {
		return fmt.Errorf("PIPELINE_DEFAULT_RETRIES must be between %d and %d", p.MinRetries, p.MaxRetries)
	}
	if p.FailureCap < 1 {
		return fmt.Errorf("PIPELINE_FAILURE_CAP must be at least 1")
	}
	return nil
}

// validateRateLimit validates the per-client quota
func (c *Config) validateRateLimit() error {
	if c.RateLimit.Disabled {
		return nil
	}
	if c.RateLimit.Requests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// validateRetryPolicy validates a per-client retry attempt count
func (c *Config) validateRetryPolicy(attempts int, field string) error {
	if attempts < 1 || attempts > 10 {
		return fmt.Errorf("%s must be between 1 and 10", field)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log output formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates the logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateBaseURL validates that a URL is properly formatted for an
// HTTP/HTTPS upstream. Paths are allowed (the MediaWiki endpoint lives
// under /w/api.php), query strings are not.
func validateBaseURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s must not contain a query string", fieldName)
	}

	return nil
}
