// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package recommend

import (
	"math"
	"sort"
)

// SimilarProducts finds catalog neighbors of a product by attribute
// proximity: same style line, base price within the configured band, and at
// least one shared color. Results are ranked by shared-color count
// descending, then price delta ascending, then productID ascending, and
// truncated to limit.
//
// When the strict filter yields fewer than limit candidates the price band
// is widened first, then the color requirement dropped, in that order, so
// any extra results are the nearest relaxations rather than arbitrary
// substitutes. Fewer than limit results is a valid outcome, never an error.
// Each call computes from scratch against the supplied catalog. Non-positive
// bands in cfg fall back to the 0.2/0.4 defaults, so the zero value is
// usable.
func SimilarProducts(product Product, catalog []Product, limit int, cfg SimilarConfig) []Product {
	if limit <= 0 {
		return nil
	}
	if cfg.PriceBand <= 0 {
		cfg.PriceBand = defaultPriceBand
	}
	if cfg.RelaxedPriceBand <= 0 {
		cfg.RelaxedPriceBand = defaultRelaxedPriceBand
	}

	strict := filterSimilar(product, catalog, cfg.PriceBand, true, nil)
	ranked := rankSimilar(product, strict)

	if len(ranked) < limit {
		seen := idSet(ranked)
		widened := filterSimilar(product, catalog, cfg.RelaxedPriceBand, true, seen)
		ranked = append(ranked, rankSimilar(product, widened)...)
	}

	if len(ranked) < limit {
		seen := idSet(ranked)
		noColor := filterSimilar(product, catalog, cfg.RelaxedPriceBand, false, seen)
		ranked = append(ranked, rankSimilar(product, noColor)...)
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// filterSimilar applies the candidate filter: same style line, price within
// band, and (optionally) a non-empty color intersection. Products in skip
// are excluded so relaxation stages only add new candidates.
func filterSimilar(product Product, catalog []Product, band float64, requireColor bool, skip map[string]struct{}) []Product {
	lo := product.BasePrice * (1 - band)
	hi := product.BasePrice * (1 + band)

	out := make([]Product, 0)
	for _, cand := range catalog {
		if cand.ID == product.ID {
			continue
		}
		if _, ok := skip[cand.ID]; ok {
			continue
		}
		if cand.StyleLine != product.StyleLine {
			continue
		}
		if cand.BasePrice < lo || cand.BasePrice > hi {
			continue
		}
		if requireColor && colorOverlap(product.Colors, cand.Colors) == 0 {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// rankSimilar orders candidates by (colorOverlapCount desc, priceDelta asc,
// productID asc).
func rankSimilar(product Product, candidates []Product) []Product {
	type rankedProduct struct {
		p       Product
		overlap int
		delta   float64
	}

	ranked := make([]rankedProduct, len(candidates))
	for i, cand := range candidates {
		ranked[i] = rankedProduct{
			p:       cand,
			overlap: colorOverlap(product.Colors, cand.Colors),
			delta:   math.Abs(cand.BasePrice - product.BasePrice),
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].overlap != ranked[j].overlap {
			return ranked[i].overlap > ranked[j].overlap
		}
		if ranked[i].delta != ranked[j].delta {
			return ranked[i].delta < ranked[j].delta
		}
		return ranked[i].p.ID < ranked[j].p.ID
	})

	out := make([]Product, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].p
	}
	return out
}

// colorOverlap counts colors present in both sets.
func colorOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, color := range a {
		set[color] = struct{}{}
	}
	count := 0
	for _, color := range b {
		if _, ok := set[color]; ok {
			count++
		}
	}
	return count
}

// idSet builds a lookup of product IDs.
func idSet(products []Product) map[string]struct{} {
	set := make(map[string]struct{}, len(products))
	for i := range products {
		set[products[i].ID] = struct{}{}
	}
	return set
}
