// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package cache provides a bounded, thread-safe in-memory cache with TTL
// expiration, used for recommendation responses. Entries expire lazily on
// read; capacity pressure triggers a sweep of expired entries on write.
// No background goroutine is started, so instances can be created freely.
package cache

import (
	"sync"
	"time"
)

// entry holds one cached value with its expiration.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a bounded in-memory cache with per-entry expiration. Safe for
// concurrent use. The zero value is not usable; use New.
type TTL[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	stats      Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// New creates a TTL cache. Entries expire ttl after insertion; maxEntries
// bounds the entry count (0 means unbounded).
func New[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	return &TTL[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the value for key if present and unexpired. Expired entries
// are removed on access and count as misses.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		c.mu.Lock()
		c.stats.Misses++
		c.mu.Unlock()
		return zero, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.mu.Unlock()
		return zero, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL. At capacity, expired
// entries are swept first; if the cache is still full, one arbitrary entry
// is evicted to keep the bound.
func (c *TTL[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
				c.stats.Evictions++
			}
		}
		if len(c.entries) >= c.maxEntries {
			for k := range c.entries {
				delete(c.entries, k)
				c.stats.Evictions++
				break
			}
		}
	}

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: now.Add(ttl),
	}
}

// Delete removes key. No-op when absent.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
}

// Clear removes all entries.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[string]entry[V])
}

// Len returns the current entry count, expired entries included until they
// are swept.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the performance counters.
func (c *TTL[V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// HitRate returns the hit percentage over all lookups, 0 when no lookups
// have happened.
func (c *TTL[V]) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
