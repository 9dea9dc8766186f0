// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package imagery

import (
	"context"
	"time"
)

// Sleeper abstracts the inter-attempt delays so tests run without real
// waits. Sleep returns early with the context error on cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewSleeper returns the production Sleeper backed by real time.
func NewSleeper() Sleeper {
	return realSleeper{}
}
