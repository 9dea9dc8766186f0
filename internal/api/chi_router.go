// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwhitfield/locaterra/internal/middleware"
	"github.com/jwhitfield/locaterra/internal/ratelimit"
)

// Router wires the handlers, middleware, and quota store into a chi mux.
type Router struct {
	handler *Handler
	chimw   *ChiMiddleware
	quota   *ratelimit.Store
}

// NewRouter creates a router. quota may be nil to disable the per-client
// hourly quota (testing, or DISABLE_RATE_LIMIT deployments).
func NewRouter(handler *Handler, chimw *ChiMiddleware, quota *ratelimit.Store) *Router {
	if chimw == nil {
		chimw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chimw: chimw, quota: quota}
}

// Setup builds the full route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.chimw.CORS())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Unknown endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed,
			"Only GET is supported on this endpoint", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)

		r.Get("/health", rt.handler.Health)
		r.Get("/score", rt.handler.Score)

		r.Group(func(r chi.Router) {
			r.Use(rt.chimw.BurstLimit())
			if rt.quota != nil {
				r.Use(ClientQuota(rt.quota))
			}
			r.Get("/location-image", rt.handler.LocationImage)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
