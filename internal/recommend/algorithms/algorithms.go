// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package algorithms implements the scoring signals blended by the
// recommendation composer.
//
//   - StyleMatch: weighted similarity between a preference vector and a
//     product attribute vector.
//   - Popularity: normalized order-frequency ranking with optional recency
//     decay.
//   - Collaborative: peer-purchase filtering over users with overlapping
//     top preferences.
//
// All signals are pure functions of the snapshot they are given: no
// training phase, no internal state, safe for concurrent use.
package algorithms

import (
	"context"

	"github.com/swanz/styleengine/internal/recommend"
)

// Ensure all signals implement the interface.
var (
	_ recommend.Signal = (*StyleMatch)(nil)
	_ recommend.Signal = (*Popularity)(nil)
	_ recommend.Signal = (*Collaborative)(nil)
)

// contextCancelled checks whether the context has been canceled.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// purchasesByUser collects the distinct product IDs each user has
// purchased.
func purchasesByUser(orders []recommend.OrderItem) map[string]map[string]struct{} {
	byUser := make(map[string]map[string]struct{})
	for _, item := range orders {
		set, ok := byUser[item.UserID]
		if !ok {
			set = make(map[string]struct{})
			byUser[item.UserID] = set
		}
		set[item.ProductID] = struct{}{}
	}
	return byUser
}

// intersects reports whether the two category sets share an element.
func intersects(a, b []recommend.StyleCategory) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[recommend.StyleCategory]struct{}, len(a))
	for _, cat := range a {
		set[cat] = struct{}{}
	}
	for _, cat := range b {
		if _, ok := set[cat]; ok {
			return true
		}
	}
	return false
}
