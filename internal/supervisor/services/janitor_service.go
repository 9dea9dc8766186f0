// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package services

import (
	"context"
	"time"

	"github.com/jwhitfield/locaterra/internal/logging"
)

// QuotaStore is the subset of the rate-limit store the janitor needs.
type QuotaStore interface {
	CleanupInactive() int
	Len() int
}

// QuotaJanitorService periodically sweeps drained client counters out of
// the rate-limit store so idle clients do not accumulate until eviction
// pressure hits.
type QuotaJanitorService struct {
	store    QuotaStore
	interval time.Duration
	name     string
}

// NewQuotaJanitorService creates the janitor. A non-positive interval
// defaults to 10 minutes.
func NewQuotaJanitorService(store QuotaStore, interval time.Duration) *QuotaJanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &QuotaJanitorService{
		store:    store,
		interval: interval,
		name:     "quota-janitor",
	}
}

// Serve implements suture.Service.
func (j *QuotaJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := j.store.CleanupInactive()
			if removed > 0 {
				logging.Debug().
					Int("removed", removed).
					Int("remaining", j.store.Len()).
					Msg("Swept inactive quota counters")
			}
		}
	}
}

// String identifies the service in suture's logs.
func (j *QuotaJanitorService) String() string {
	return j.name
}
