// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package ratelimit implements the per-client request quota as a
// memory-efficient sliding window.
//
// Each client gets a counter whose window is divided into buckets summed on
// read, so the quota rolls smoothly instead of resetting on a fixed
// boundary. Complexity per client:
//   - Allow: O(k) where k = number of buckets
//   - Memory: O(k)
package ratelimit

import (
	"sync"
	"time"
)

const (
	// defaultBuckets divides the window into one-minute slices for the
	// default one-hour quota window.
	defaultBuckets = 60

	// defaultMaxClients caps the counter map so an address-spoofing
	// client cannot grow it without bound.
	defaultMaxClients = 10000
)

// windowCounter is one client's circular bucket buffer.
type windowCounter struct {
	buckets    []int64
	bucketSize time.Duration
	numBuckets int
	current    int
	lastUpdate time.Time
}

func newWindowCounter(window time.Duration, numBuckets int, now time.Time) *windowCounter {
	return &windowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: window / time.Duration(numBuckets),
		numBuckets: numBuckets,
		lastUpdate: now,
	}
}

// advance rotates the buffer past buckets that have aged out.
// Caller holds the store lock.
func (c *windowCounter) advance(now time.Time) {
	elapsed := int(now.Sub(c.lastUpdate) / c.bucketSize)
	if elapsed <= 0 {
		return
	}

	if elapsed >= c.numBuckets {
		for i := range c.buckets {
			c.buckets[i] = 0
		}
		c.current = 0
	} else {
		for i := 0; i < elapsed; i++ {
			c.current = (c.current + 1) % c.numBuckets
			c.buckets[c.current] = 0
		}
	}
	c.lastUpdate = now
}

func (c *windowCounter) total() int64 {
	var sum int64
	for _, n := range c.buckets {
		sum += n
	}
	return sum
}

// Store tracks request counts per client key against a rolling quota.
// Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	counters   map[string]*windowCounter
	limit      int
	window     time.Duration
	numBuckets int
	maxClients int
	now        func() time.Time
}

// NewStore creates a quota store allowing limit requests per rolling
// window per client key.
func NewStore(limit int, window time.Duration) *Store {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Store{
		counters:   make(map[string]*windowCounter),
		limit:      limit,
		window:     window,
		numBuckets: defaultBuckets,
		maxClients: defaultMaxClients,
		now:        time.Now,
	}
}

// Allow records one request for the client if the quota permits it.
// Returns whether the request is allowed and how many requests remain in
// the window after this one. A denied request is not recorded; the client
// does not dig a deeper hole by retrying.
func (s *Store) Allow(key string) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	if !ok {
		if len(s.counters) >= s.maxClients {
			s.evictOne()
		}
		counter = newWindowCounter(s.window, s.numBuckets, now)
		s.counters[key] = counter
	}

	counter.advance(now)
	used := counter.total()
	if used >= int64(s.limit) {
		return false, 0
	}

	counter.buckets[counter.current]++
	return true, s.limit - int(used) - 1
}

// Count returns the client's current usage within the window.
func (s *Store) Count(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[key]
	if !ok {
		return 0
	}
	counter.advance(s.now())
	return counter.total()
}

// Limit returns the configured per-window quota.
func (s *Store) Limit() int { return s.limit }

// Window returns the rolling window length.
func (s *Store) Window() time.Duration { return s.window }

// Len returns the number of tracked clients.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// Remove drops the counter for the given client.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
}

// CleanupInactive removes counters whose windows have fully drained.
// Returns the number removed. Run periodically; an idle client's counter
// otherwise lingers until eviction pressure hits.
func (s *Store) CleanupInactive() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, counter := range s.counters {
		counter.advance(now)
		if counter.total() == 0 {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

// evictOne removes an arbitrary counter when at capacity.
// Caller holds the lock.
func (s *Store) evictOne() {
	for key := range s.counters {
		delete(s.counters, key)
		return
	}
}
