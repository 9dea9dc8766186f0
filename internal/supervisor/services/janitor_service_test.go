// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeQuotaStore struct {
	swept chan struct{}
}

func (s *fakeQuotaStore) CleanupInactive() int {
	select {
	case s.swept <- struct{}{}:
	default:
	}
	return 3
}

func (s *fakeQuotaStore) Len() int { return 7 }

func TestJanitorSweepsOnInterval(t *testing.T) {
	store := &fakeQuotaStore{swept: make(chan struct{}, 1)}
	svc := NewQuotaJanitorService(store, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-store.swept:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept the store")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}

func TestJanitorDefaults(t *testing.T) {
	svc := NewQuotaJanitorService(&fakeQuotaStore{swept: make(chan struct{}, 1)}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("default interval = %v", svc.interval)
	}
	if svc.String() != "quota-janitor" {
		t.Errorf("String() = %q", svc.String())
	}
}
