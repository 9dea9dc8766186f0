// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package httpclient provides the shared retrying JSON fetch used by every
// upstream client in the pipeline.
//
// All upstream calls follow the same policy:
//   - Fixed per-call timeout (default 10s)
//   - A fixed retry budget with linear backoff (delay * attempt)
//   - HTTP 429 handling with Retry-After support
//   - Optional request pacing via a token-bucket limiter, for providers
//     whose usage policy caps the request rate
//   - Context-cancellable waits between attempts
//
// Failures that survive the retry budget are reported as ErrUnavailable so
// callers can distinguish "the provider is down" from "the provider had no
// result".
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/metrics"
)

// ErrUnavailable indicates an upstream provider could not be reached or
// kept failing after the retry budget was spent.
var ErrUnavailable = errors.New("provider unavailable")

// maxErrorBodySize limits the response body read for error reporting
// to protect against memory exhaustion from malicious or misconfigured
// upstreams.
const maxErrorBodySize = 64 * 1024 // 64KB

// Config holds the per-upstream client settings.
type Config struct {
	// Name labels the upstream in logs and metrics.
	Name string

	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts per call.
	RetryAttempts int

	// RetryDelay is the linear backoff base: attempt n waits n*RetryDelay.
	RetryDelay time.Duration

	// Pace caps requests per second against the upstream. Zero means unpaced.
	Pace float64

	// UserAgent identifies this deployment to the upstream.
	UserAgent string

	// Referer is sent when non-empty. Some providers require it alongside
	// the User-Agent to attribute traffic.
	Referer string
}

// Client is a retrying, paced JSON fetcher for one upstream provider.
// Safe for concurrent use.
type Client struct {
	name       string
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
	userAgent  string
	referer    string
	limiter    *rate.Limiter
}

// New creates a client with the given configuration, applying defaults
// for zero values.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	var limiter *rate.Limiter
	if cfg.Pace > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Pace), 1)
	}

	return &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		attempts:   cfg.RetryAttempts,
		retryDelay: cfg.RetryDelay,
		userAgent:  cfg.UserAgent,
		referer:    cfg.Referer,
		limiter:    limiter,
	}
}

// GetJSON fetches the URL and decodes the JSON response into result.
// It retries transient failures (network errors, 5xx, 429) with linear
// backoff and honors Retry-After on 429 responses. Non-retryable HTTP
// statuses fail immediately. The returned error wraps ErrUnavailable
// whenever the upstream, rather than the caller, is at fault.
func (c *Client) GetJSON(ctx context.Context, reqURL string, result interface{}) error {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		retryable, err := c.doAttempt(ctx, reqURL, result)
		metrics.RecordUpstreamRequest(c.name, err == nil, time.Since(start))
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable || attempt == c.attempts {
			break
		}

		delay := c.retryDelay * time.Duration(attempt)
		if ra, ok := retryAfterFromError(err); ok && ra > delay {
			delay = ra
		}

		logging.Ctx(ctx).Debug().
			Str("upstream", c.name).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("Upstream request failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s request failed after %d attempts: %w: %w",
		c.name, c.attempts, ErrUnavailable, lastErr)
}

// statusError carries an HTTP failure status through the retry loop.
type statusError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// doAttempt performs a single request. The bool reports whether the
// failure is retryable.
func (c *Client) doAttempt(ctx context.Context, reqURL string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return true, fmt.Errorf("failed to decode response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		serr := &statusError{status: resp.StatusCode, body: string(readBodyForError(resp.Body))}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, perr := strconv.Atoi(ra); perr == nil {
				serr.retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return true, serr

	case resp.StatusCode >= 500:
		return true, &statusError{status: resp.StatusCode, body: string(readBodyForError(resp.Body))}

	default:
		return false, &statusError{status: resp.StatusCode, body: string(readBodyForError(resp.Body))}
	}
}

// retryAfterFromError extracts a Retry-After hint from a status error.
func retryAfterFromError(err error) (time.Duration, bool) {
	var serr *statusError
	if errors.As(err, &serr) && serr.retryAfter > 0 {
		return serr.retryAfter, true
	}
	return 0, false
}

// readBodyForError reads the response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte(fmt.Sprintf("<failed to read body: %v>", err))
	}
	if len(body) == maxErrorBodySize {
		body = append(body, []byte("... (truncated)")...)
	}
	return body
}
