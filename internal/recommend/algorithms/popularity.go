// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package algorithms

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/swanz/styleengine/internal/recommend"
)

// Popularity ranks products by order-item frequency. Each unit of quantity
// counts once; with recency decay enabled, an order contributes
//
//	quantity * 0.5^(ageDays/halfLifeDays)
//
// so older purchases matter less. Raw counts are normalized to [0, 1] by
// the maximum count in the candidate set, which makes the most popular
// product score exactly 1.
type Popularity struct {
	cfg recommend.PopularityConfig
}

// NewPopularity creates the popularity signal.
func NewPopularity(cfg recommend.PopularityConfig) *Popularity {
	if cfg.HalfLifeDays <= 0 {
		cfg.HalfLifeDays = 30
	}
	return &Popularity{cfg: cfg}
}

// Name returns the component key.
func (p *Popularity) Name() string {
	return recommend.SignalPopularity
}

// Score returns normalized popularity for every product present in the
// snapshot's order history. No history means an empty map, not an error.
func (p *Popularity) Score(ctx context.Context, snap *recommend.Snapshot) (map[string]float64, error) {
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}
	return p.counts(snap.Orders, "", nil, snap.Now), nil
}

// Rank returns the most popular products in order, optionally restricted to
// one style line. The catalog supplies product records and the style-line
// filter; products missing from the catalog are skipped. An empty order
// history yields an empty slice.
func (p *Popularity) Rank(orders []recommend.OrderItem, catalog []recommend.Product, styleLine recommend.StyleCategory, limit int, now time.Time) []recommend.ScoredProduct {
	if limit <= 0 || len(orders) == 0 {
		return nil
	}

	byID := make(map[string]recommend.Product, len(catalog))
	for _, prod := range catalog {
		byID[prod.ID] = prod
	}

	scores := p.counts(orders, styleLine, byID, now)

	ranked := make([]recommend.ScoredProduct, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, recommend.ScoredProduct{Product: byID[id], Score: score})
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

// counts accumulates decayed per-unit counts and normalizes them by the
// maximum. byID, when non-nil, restricts candidates to known catalog
// products and applies the style-line filter.
func (p *Popularity) counts(orders []recommend.OrderItem, styleLine recommend.StyleCategory, byID map[string]recommend.Product, now time.Time) map[string]float64 {
	if len(orders) == 0 {
		return nil
	}
	if now.IsZero() {
		now = newestOrder(orders)
	}

	raw := make(map[string]float64)
	for _, item := range orders {
		if item.Quantity <= 0 {
			continue
		}
		if byID != nil {
			prod, ok := byID[item.ProductID]
			if !ok {
				continue
			}
			if styleLine != "" && prod.StyleLine != styleLine {
				continue
			}
		}

		weight := float64(item.Quantity)
		if p.cfg.UseRecencyDecay && !item.OrderedAt.IsZero() {
			ageDays := now.Sub(item.OrderedAt).Hours() / 24
			if ageDays > 0 {
				weight *= math.Pow(0.5, ageDays/p.cfg.HalfLifeDays)
			}
		}
		raw[item.ProductID] += weight
	}

	if len(raw) == 0 {
		return nil
	}

	var maxCount float64
	for _, count := range raw {
		if count > maxCount {
			maxCount = count
		}
	}
	for id := range raw {
		raw[id] /= maxCount
	}
	return raw
}

// newestOrder returns the latest order timestamp, for decay reference when
// the caller supplies none.
func newestOrder(orders []recommend.OrderItem) time.Time {
	var newest time.Time
	for _, item := range orders {
		if item.OrderedAt.After(newest) {
			newest = item.OrderedAt
		}
	}
	return newest
}
