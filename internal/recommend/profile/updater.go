// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package profile implements the online preference-update loop and the
// versioned stores that serialize concurrent updates to one user's
// StyleProfile.
//
// ApplyInteraction is a pure transform: it nudges the preference vector
// toward a product's attributes with an exponential-moving-average step
// scaled by the interaction's signed weight. Apply wraps it in a bounded
// compare-and-swap loop against a Store, using StyleProfile.Version as the
// optimistic concurrency token. Repeated identical events shift the score
// further on purpose — reinforcement, not idempotence — but every update is
// deterministic given identical inputs.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swanz/styleengine/internal/metrics"
	"github.com/swanz/styleengine/internal/recommend"
)

// Store errors. Stores wrap these so callers can use errors.Is.
var (
	// ErrNotFound indicates no profile exists for the user.
	ErrNotFound = errors.New("profile not found")

	// ErrVersionConflict indicates the stored version no longer matches
	// the expected one; the writer lost the race.
	ErrVersionConflict = errors.New("profile version conflict")
)

// ConflictError is returned when the compare-and-swap loop exhausts its
// retries. The caller must re-fetch and resubmit.
type ConflictError struct {
	UserID   string
	Attempts int
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("preference update conflict for user %s after %d attempts", e.UserID, e.Attempts)
}

// Unwrap lets errors.Is(err, ErrVersionConflict) succeed.
func (e *ConflictError) Unwrap() error {
	return ErrVersionConflict
}

// Store persists StyleProfiles with optimistic concurrency. Put commits
// only when the stored version equals expectedVersion (0 for creation) and
// returns ErrVersionConflict otherwise. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the user's profile or ErrNotFound.
	Get(ctx context.Context, userID string) (*recommend.StyleProfile, error)

	// Put stores the profile if the current stored version equals
	// expectedVersion. expectedVersion 0 requires that no profile exist.
	Put(ctx context.Context, p *recommend.StyleProfile, expectedVersion int64) error

	// Delete removes the user's profile (user-deletion cascade).
	Delete(ctx context.Context, userID string) error

	// All returns every stored profile.
	All(ctx context.Context) ([]recommend.StyleProfile, error)
}

// UpdaterConfig tunes the preference updater.
type UpdaterConfig struct {
	// LearningRate scales each nudge. Must be in (0, 1].
	// Default: 0.1.
	LearningRate float64 `koanf:"learning_rate" json:"learning_rate" validate:"gt=0,lte=1"`

	// MaxRetries bounds the compare-and-swap loop before surfacing a
	// conflict.
	// Default: 5.
	MaxRetries int `koanf:"max_retries" json:"max_retries" validate:"min=1"`

	// KindWeights overrides the implicit feedback weights per interaction
	// kind. Nil uses the built-in constants (+1/+3/+5/-2).
	KindWeights map[string]float64 `koanf:"kind_weights" json:"kind_weights,omitempty"`
}

// DefaultUpdaterConfig returns the documented defaults.
func DefaultUpdaterConfig() UpdaterConfig {
	return UpdaterConfig{
		LearningRate: 0.1,
		MaxRetries:   5,
	}
}

// kindWeight resolves the signed weight for an interaction kind.
func (c UpdaterConfig) kindWeight(kind recommend.InteractionKind) float64 {
	if w, ok := c.KindWeights[kind.String()]; ok {
		return w
	}
	return kind.Weight()
}

// ApplyInteraction returns a copy of the profile nudged toward the
// product's attributes. For each category present on the product:
//
//	new = clamp(old + learningRate * weight * (attr*100 - old), 0, 100)
//
// Categories absent from the product are untouched. Version increments by
// one and UpdatedAt refreshes (from the event timestamp when set, so the
// transform stays deterministic). The input profile is not mutated;
// persistence is the caller's concern.
func ApplyInteraction(p *recommend.StyleProfile, event recommend.InteractionEvent, product recommend.Product, cfg UpdaterConfig) (*recommend.StyleProfile, error) {
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return nil, &recommend.InputError{Field: "learning_rate", Value: cfg.LearningRate, Reason: "must be in (0, 1]"}
	}
	if p == nil {
		return nil, &recommend.InputError{Field: "profile", Reason: "must not be nil"}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if event.UserID != p.UserID {
		return nil, &recommend.InputError{Field: "event.user_id", Value: event.UserID, Reason: "does not match profile owner"}
	}

	updated := p.Clone()
	if updated.Preferences == nil {
		updated.Preferences = make(recommend.PreferenceVector)
	}

	weight := cfg.kindWeight(event.Kind)
	for cat, attr := range product.EffectiveAttributes() {
		old := updated.Preferences[cat]
		next := old + cfg.LearningRate*weight*(attr*100-old)
		updated.Preferences[cat] = clamp(next, 0, 100)
	}

	updated.Version++
	if !event.Timestamp.IsZero() {
		updated.UpdatedAt = event.Timestamp
	} else {
		updated.UpdatedAt = time.Now()
	}
	return updated, nil
}

// Apply runs ApplyInteraction inside a compare-and-swap loop against the
// store. A missing profile is created on first interaction. When the
// stored version moves under us the interaction is reapplied against the
// fresh vector; after cfg.MaxRetries lost races it returns *ConflictError.
func Apply(ctx context.Context, store Store, event recommend.InteractionEvent, product recommend.Product, cfg UpdaterConfig) (*recommend.StyleProfile, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultUpdaterConfig().MaxRetries
	}

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		current, err := store.Get(ctx, event.UserID)
		switch {
		case errors.Is(err, ErrNotFound):
			// First interaction: absent -> present.
			current = &recommend.StyleProfile{
				UserID:      event.UserID,
				Preferences: make(recommend.PreferenceVector),
			}
		case err != nil:
			return nil, fmt.Errorf("get profile: %w", err)
		}

		updated, err := ApplyInteraction(current, event, product, cfg)
		if err != nil {
			return nil, err
		}

		err = store.Put(ctx, updated, current.Version)
		if errors.Is(err, ErrVersionConflict) {
			metrics.UpdateConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("put profile: %w", err)
		}
		return updated, nil
	}

	return nil, &ConflictError{UserID: event.UserID, Attempts: cfg.MaxRetries}
}

// Reset overwrites the user's preference vector in full, as happens on quiz
// resubmission. The same compare-and-swap discipline applies.
func Reset(ctx context.Context, store Store, userID string, prefs recommend.PreferenceVector, rawQuiz []byte, cfg UpdaterConfig) (*recommend.StyleProfile, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultUpdaterConfig().MaxRetries
	}

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		var version int64
		current, err := store.Get(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
			version = 0
		case err != nil:
			return nil, fmt.Errorf("get profile: %w", err)
		default:
			version = current.Version
		}

		updated := &recommend.StyleProfile{
			UserID:           userID,
			Preferences:      prefs,
			RawQuizResponses: rawQuiz,
			Version:          version + 1,
			UpdatedAt:        time.Now(),
		}
		if err := updated.Validate(); err != nil {
			return nil, err
		}

		err = store.Put(ctx, updated, version)
		if errors.Is(err, ErrVersionConflict) {
			metrics.UpdateConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("put profile: %w", err)
		}
		return updated, nil
	}

	return nil, &ConflictError{UserID: userID, Attempts: cfg.MaxRetries}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
