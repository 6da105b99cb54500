// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package algorithms

import (
	"context"
	"sort"

	"github.com/swanz/styleengine/internal/recommend"
)

// Collaborative surfaces products purchased by peer users. A peer is any
// other user whose top-K preferred categories intersect the target user's
// top-K set. Candidate products are peer purchases the target has not made
// themselves, scored by the fraction of peers who bought them: one peer,
// one vote, regardless of quantity.
type Collaborative struct {
	cfg recommend.CollaborativeConfig
}

// NewCollaborative creates the collaborative filter signal.
func NewCollaborative(cfg recommend.CollaborativeConfig) *Collaborative {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Collaborative{cfg: cfg}
}

// Name returns the component key.
func (c *Collaborative) Name() string {
	return recommend.SignalCollaborative
}

// Score returns peer-frequency scores in [0, 1] for candidate products.
// Zero peers means an empty map; the filter never falls back to unrelated
// users.
func (c *Collaborative) Score(ctx context.Context, snap *recommend.Snapshot) (map[string]float64, error) {
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}
	return c.candidateScores(snap.UserID, snap.Profile, snap.Profiles, snap.Orders), nil
}

// Candidates returns the ranked candidate products with their peer
// frequencies, descending with productID ascending on ties, truncated to
// limit. The catalog supplies the product records; peer purchases missing
// from it are skipped. This is the standalone form of the signal.
func (c *Collaborative) Candidates(userID string, profiles []recommend.StyleProfile, orders []recommend.OrderItem, catalog []recommend.Product, limit int) []recommend.ScoredProduct {
	if limit <= 0 {
		return nil
	}

	var target *recommend.StyleProfile
	for i := range profiles {
		if profiles[i].UserID == userID {
			target = &profiles[i]
			break
		}
	}

	byID := make(map[string]recommend.Product, len(catalog))
	for _, prod := range catalog {
		byID[prod.ID] = prod
	}

	scores := c.candidateScores(userID, target, profiles, orders)

	ranked := make([]recommend.ScoredProduct, 0, len(scores))
	for id, score := range scores {
		prod, ok := byID[id]
		if !ok {
			continue
		}
		ranked = append(ranked, recommend.ScoredProduct{
			Product: prod,
			Score:   score,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Product.ID < ranked[j].Product.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// candidateScores computes peer-vote fractions for the target user.
func (c *Collaborative) candidateScores(userID string, target *recommend.StyleProfile, profiles []recommend.StyleProfile, orders []recommend.OrderItem) map[string]float64 {
	if target == nil {
		return nil
	}

	targetTop := target.TopCategories(c.cfg.TopK)
	if len(targetTop) == 0 {
		return nil
	}

	// Peers: other users sharing at least one top-K category.
	peers := make(map[string]struct{})
	for i := range profiles {
		peer := &profiles[i]
		if peer.UserID == userID {
			continue
		}
		if intersects(targetTop, peer.TopCategories(c.cfg.TopK)) {
			peers[peer.UserID] = struct{}{}
		}
	}
	if len(peers) == 0 {
		return nil
	}

	byUser := purchasesByUser(orders)
	owned := byUser[userID]

	// One peer, one vote per product.
	votes := make(map[string]int)
	for peerID := range peers {
		for productID := range byUser[peerID] {
			if _, already := owned[productID]; already {
				continue
			}
			votes[productID]++
		}
	}
	if len(votes) == 0 {
		return nil
	}

	scores := make(map[string]float64, len(votes))
	peerCount := float64(len(peers))
	for productID, count := range votes {
		scores[productID] = float64(count) / peerCount
	}
	return scores
}
