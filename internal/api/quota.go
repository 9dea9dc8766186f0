// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package api

import (
	"net"
	"net/http"
	"strconv"

	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/metrics"
	"github.com/jwhitfield/locaterra/internal/ratelimit"
)

// ClientQuota enforces the per-client rolling-window request quota backed
// by the sliding-window store. Clients are keyed by IP; run this after
// chi's RealIP middleware so proxied deployments key on the real client.
//
// Denied requests get a 429 envelope with Retry-After set to the window
// length, the coarsest honest bound the sliding window can give.
func ClientQuota(store *ratelimit.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			allowed, remaining := store.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(store.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				metrics.RecordRateLimitHit(r.URL.Path)
				logging.Ctx(r.Context()).Warn().
					Str("client", key).
					Str("path", r.URL.Path).
					Msg("Client quota exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(int(store.Window().Seconds())))
				respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited,
					"Rate limit exceeded, try again later", map[string]interface{}{
						"limit":  store.Limit(),
						"window": store.Window().String(),
					})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey extracts the client identifier from the request.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
