// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jwhitfield/locaterra/internal/ratelimit"
)

func newTestRouter(quota *ratelimit.Store) http.Handler {
	f := newFixture()
	return NewRouter(f.handler, NewChiMiddleware(&ChiMiddlewareConfig{
		BurstRequests: 1000,
		BurstWindow:   time.Minute,
	}), quota).Setup()
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/location-image", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrCodeMethodNotAllowed) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouterUnknownEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrCodeNotFound) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRouterRequestIDAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing standard collectors")
	}
}

func TestRouterClientQuota(t *testing.T) {
	store := ratelimit.NewStore(2, time.Hour)
	router := newTestRouter(store)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/location-image?includeImage=false", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, body %s", i+1, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/location-image?includeImage=false", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrCodeRateLimited) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
}

func TestRouterQuotaSkipsOtherEndpoints(t *testing.T) {
	store := ratelimit.NewStore(1, time.Hour)
	router := newTestRouter(store)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d: status = %d", i+1, rec.Code)
		}
	}
}
