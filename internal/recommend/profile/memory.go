// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/swanz/styleengine/internal/metrics"
	"github.com/swanz/styleengine/internal/recommend"
)

// MemoryStore is an in-memory Store for tests and single-process
// deployments. Profiles are deep-copied on both read and write so callers
// can never alias stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*recommend.StyleProfile
}

var (
	_ Store                     = (*MemoryStore)(nil)
	_ recommend.ProfileProvider = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*recommend.StyleProfile),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID string) (*recommend.StyleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return p.Clone(), nil
}

// Put implements Store. expectedVersion 0 requires that no profile exist.
func (s *MemoryStore) Put(_ context.Context, p *recommend.StyleProfile, expectedVersion int64) error {
	if p == nil || p.UserID == "" {
		return &recommend.InputError{Field: "profile", Reason: "must have a user id"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[p.UserID]
	switch {
	case !ok && expectedVersion != 0:
		return fmt.Errorf("user %s: expected version %d, profile absent: %w", p.UserID, expectedVersion, ErrVersionConflict)
	case ok && current.Version != expectedVersion:
		return fmt.Errorf("user %s: expected version %d, have %d: %w", p.UserID, expectedVersion, current.Version, ErrVersionConflict)
	}

	s.profiles[p.UserID] = p.Clone()
	metrics.ProfilesStored.Set(float64(len(s.profiles)))
	return nil
}

// Delete implements Store. Deleting an absent profile is not an error.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, userID)
	metrics.ProfilesStored.Set(float64(len(s.profiles)))
	return nil
}

// All implements Store. Results are ordered by user ID for determinism.
func (s *MemoryStore) All(_ context.Context) ([]recommend.StyleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recommend.StyleProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Profile implements recommend.ProfileProvider. Absent profiles return
// (nil, nil): a missing profile is a cold-start condition, not an error.
func (s *MemoryStore) Profile(ctx context.Context, userID string) (*recommend.StyleProfile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, nil //nolint:nilerr // absent is a valid state here
	}
	return p, nil
}

// Profiles implements recommend.ProfileProvider.
func (s *MemoryStore) Profiles(ctx context.Context) ([]recommend.StyleProfile, error) {
	return s.All(ctx)
}
