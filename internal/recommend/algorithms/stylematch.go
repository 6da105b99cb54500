// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package algorithms

import (
	"context"
	"math"

	"github.com/swanz/styleengine/internal/recommend"
)

// StyleMatch scores catalog products by weighted similarity between the
// user's preference vector and each product's attribute vector.
//
// For every category present in both vectors it accumulates
//
//	weight * (1 - |pref/100 - attr|)
//
// into a numerator and weight into a denominator; the score is their ratio.
// No shared category means score 0 — an unscored product must never rank
// above a scored mismatch.
type StyleMatch struct{}

// NewStyleMatch creates the style-match signal.
func NewStyleMatch() *StyleMatch {
	return &StyleMatch{}
}

// Name returns the component key.
func (s *StyleMatch) Name() string {
	return recommend.SignalStyleMatch
}

// Score rates every catalog product against the snapshot's profile. A nil
// profile returns an empty map so the signal contributes nothing for users
// who have not completed the quiz.
func (s *StyleMatch) Score(ctx context.Context, snap *recommend.Snapshot) (map[string]float64, error) {
	if snap.Profile == nil || len(snap.Profile.Preferences) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(snap.Catalog))
	for i := range snap.Catalog {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}
		p := &snap.Catalog[i]
		scores[p.ID] = StyleScore(snap.Profile.Preferences, snap.Profile.Weights, p.EffectiveAttributes())
	}
	return scores, nil
}

// StyleScore computes the weighted similarity in [0, 1] between a
// preference vector (scores 0-100) and an attribute vector (values 0-1).
// Categories absent from either side are skipped; the default category
// weight is 1 unless weights overrides it. An empty overlap yields 0.
//
// Because weights attach to the preference side, the function is not
// symmetric in argument order when per-category weights are present.
func StyleScore(prefs recommend.PreferenceVector, weights map[recommend.StyleCategory]float64, attrs recommend.AttributeVector) float64 {
	if len(prefs) == 0 || len(attrs) == 0 {
		return 0
	}

	var numerator, denominator float64
	for cat, pref := range prefs {
		attr, ok := attrs[cat]
		if !ok {
			continue
		}

		weight := 1.0
		if w, ok := weights[cat]; ok {
			weight = w
		}

		numerator += weight * (1 - math.Abs(pref/100-attr))
		denominator += weight
	}

	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}
