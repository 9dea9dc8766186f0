// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/metrics"
	"github.com/jwhitfield/locaterra/internal/models"
)

// Fetcher retrieves the full country catalog from an upstream.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.Country, error)
}

// Cached wraps a Fetcher with a TTL cache. The catalog changes on the order
// of years, so a single cached copy with a long TTL removes almost all
// upstream traffic. When a refresh fails and a stale copy exists, the stale
// copy is served rather than the error.
type Cached struct {
	upstream Fetcher
	ttl      time.Duration

	mu        sync.Mutex
	countries []models.Country
	fetchedAt time.Time

	now func() time.Time
}

// NewCached wraps upstream with a TTL cache. A non-positive ttl disables
// caching and every call passes through.
func NewCached(upstream Fetcher, ttl time.Duration) *Cached {
	return &Cached{
		upstream: upstream,
		ttl:      ttl,
		now:      time.Now,
	}
}

// FetchAll returns the cached catalog, refreshing it from the upstream when
// the TTL has lapsed. Concurrent callers share one refresh.
func (c *Cached) FetchAll(ctx context.Context) ([]models.Country, error) {
	if c.ttl <= 0 {
		return c.upstream.FetchAll(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.countries != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		metrics.RecordCatalogCacheLookup("hit")
		return c.countries, nil
	}

	metrics.RecordCatalogCacheLookup("miss")
	countries, err := c.upstream.FetchAll(ctx)
	if err != nil {
		if c.countries != nil {
			metrics.RecordCatalogCacheLookup("stale")
			logging.Warn().Err(err).
				Time("fetched_at", c.fetchedAt).
				Msg("Catalog refresh failed, serving stale copy")
			return c.countries, nil
		}
		return nil, err
	}

	c.countries = countries
	c.fetchedAt = c.now()
	return countries, nil
}

// Invalidate drops the cached copy so the next call refetches.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countries = nil
	c.fetchedAt = time.Time{}
}
