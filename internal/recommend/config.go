// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each signal. Weights
	// are rescaled proportionally at runtime when they do not sum to 1,
	// so misconfiguration degrades gracefully instead of erroring.
	Weights SignalWeights `koanf:"weights" json:"weights"`

	// Popularity contains parameters for the popularity aggregator.
	Popularity PopularityConfig `koanf:"popularity" json:"popularity"`

	// Collaborative contains parameters for the collaborative filter.
	Collaborative CollaborativeConfig `koanf:"collaborative" json:"collaborative"`

	// Similar contains parameters for the similarity ranker.
	Similar SimilarConfig `koanf:"similar" json:"similar"`

	// Limits contains operational limits.
	Limits LimitsConfig `koanf:"limits" json:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `koanf:"cache" json:"cache"`
}

// SignalWeights defines the relative contribution of each signal to the
// composite score.
type SignalWeights struct {
	// StyleMatch is the weight of the style-match signal.
	StyleMatch float64 `koanf:"style_match" json:"style_match"`

	// Collaborative is the weight of the collaborative filter.
	Collaborative float64 `koanf:"collaborative" json:"collaborative"`

	// Popularity is the weight of the popularity aggregator.
	Popularity float64 `koanf:"popularity" json:"popularity"`

	// Remote is the weight of the optional remote AI signal. Zero keeps
	// the remote scorer out of the blend even when one is configured.
	Remote float64 `koanf:"remote" json:"remote"`
}

// DefaultWeights returns the documented default 0.5/0.3/0.2 split with the
// remote signal disabled.
func DefaultWeights() SignalWeights {
	return SignalWeights{
		StyleMatch:    0.5,
		Collaborative: 0.3,
		Popularity:    0.2,
		Remote:        0,
	}
}

// Normalize returns a copy with weights rescaled proportionally to sum to
// 1.0. A zero (or invalid) sum falls back to the defaults.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w SignalWeights) Normalize() SignalWeights {
	sum := w.StyleMatch + w.Collaborative + w.Popularity + w.Remote
	if sum <= 0 {
		return DefaultWeights()
	}
	return SignalWeights{
		StyleMatch:    w.StyleMatch / sum,
		Collaborative: w.Collaborative / sum,
		Popularity:    w.Popularity / sum,
		Remote:        w.Remote / sum,
	}
}

// ToMap returns the weights keyed by component name.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w SignalWeights) ToMap() map[string]float64 {
	return map[string]float64{
		SignalStyleMatch:    w.StyleMatch,
		SignalCollaborative: w.Collaborative,
		SignalPopularity:    w.Popularity,
		SignalRemote:        w.Remote,
	}
}

// PopularityConfig contains parameters for the popularity aggregator.
type PopularityConfig struct {
	// UseRecencyDecay applies exponential decay to older orders.
	// Default: false.
	UseRecencyDecay bool `koanf:"use_recency_decay" json:"use_recency_decay"`

	// HalfLifeDays is the decay half-life in days: an order this old
	// contributes half the weight of a fresh one.
	// Default: 30.
	HalfLifeDays float64 `koanf:"half_life_days" json:"half_life_days"`
}

// CollaborativeConfig contains parameters for the collaborative filter.
type CollaborativeConfig struct {
	// TopK is how many of the user's highest-scored categories define the
	// peer overlap set.
	// Default: 3.
	TopK int `koanf:"top_k" json:"top_k"`
}

// Similarity ranker price bands, shared by config defaults and the
// ranker's zero-value fallback.
const (
	defaultPriceBand        = 0.2
	defaultRelaxedPriceBand = 0.4
)

// SimilarConfig contains parameters for the similarity ranker.
type SimilarConfig struct {
	// PriceBand is the strict relative price window around the source
	// product's base price.
	// Default: 0.2 (accept 80%-120% of base).
	PriceBand float64 `koanf:"price_band" json:"price_band"`

	// RelaxedPriceBand is the widened window used when the strict filter
	// yields fewer candidates than requested.
	// Default: 0.4.
	RelaxedPriceBand float64 `koanf:"relaxed_price_band" json:"relaxed_price_band"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the number of recommendations returned when the
	// request does not specify one.
	// Default: 20.
	DefaultLimit int `koanf:"default_limit" json:"default_limit"`

	// MaxLimit caps the requested result size.
	// Default: 100.
	MaxLimit int `koanf:"max_limit" json:"max_limit"`

	// SignalTimeout bounds each signal's computation per request.
	// Default: 5s.
	SignalTimeout time.Duration `koanf:"signal_timeout" json:"signal_timeout"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether response caching is active.
	// Default: true.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `koanf:"ttl" json:"ttl"`

	// MaxEntries bounds the cache size; expired entries are evicted when
	// the bound is reached.
	// Default: 10000.
	MaxEntries int `koanf:"max_entries" json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: DefaultWeights(),
		Popularity: PopularityConfig{
			UseRecencyDecay: false,
			HalfLifeDays:    30,
		},
		Collaborative: CollaborativeConfig{
			TopK: 3,
		},
		Similar: SimilarConfig{
			PriceBand:        defaultPriceBand,
			RelaxedPriceBand: defaultRelaxedPriceBand,
		},
		Limits: LimitsConfig{
			DefaultLimit:  20,
			MaxLimit:      100,
			SignalTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors. Weights are permitted to
// sum to anything positive (they are rescaled), but may not be negative.
func (c *Config) Validate() error {
	if c.Weights.StyleMatch < 0 || c.Weights.Collaborative < 0 ||
		c.Weights.Popularity < 0 || c.Weights.Remote < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", c.Weights)
	}
	if c.Popularity.HalfLifeDays <= 0 {
		return fmt.Errorf("popularity.half_life_days must be positive, got %f", c.Popularity.HalfLifeDays)
	}
	if c.Collaborative.TopK < 1 {
		return fmt.Errorf("collaborative.top_k must be positive, got %d", c.Collaborative.TopK)
	}
	if c.Similar.PriceBand <= 0 {
		return fmt.Errorf("similar.price_band must be positive, got %f", c.Similar.PriceBand)
	}
	if c.Similar.RelaxedPriceBand < c.Similar.PriceBand {
		return fmt.Errorf("similar.relaxed_price_band must be >= similar.price_band, got %f < %f",
			c.Similar.RelaxedPriceBand, c.Similar.PriceBand)
	}
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.SignalTimeout <= 0 {
		return fmt.Errorf("limits.signal_timeout must be positive, got %v", c.Limits.SignalTimeout)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	cp := *c
	return &cp
}
