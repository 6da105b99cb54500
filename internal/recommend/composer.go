// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swanz/styleengine/internal/cache"
	"github.com/swanz/styleengine/internal/metrics"
	"github.com/swanz/styleengine/internal/validation"
)

// Composer blends the style-match, collaborative, and popularity signals
// (plus an optional remote scorer) into one ranked, deduplicated list.
// It holds no domain state of its own and is safe for concurrent use:
// recommendation requests only read the snapshots supplied to them.
type Composer struct {
	config *Config
	logger zerolog.Logger

	// Registered signals
	signals []Signal
	sigMu   sync.RWMutex

	// Optional remote AI scorer, blended when Weights.Remote > 0.
	remote RemoteScorer

	// Data providers
	catalog  CatalogProvider
	orders   OrderProvider
	profiles ProfileProvider

	// Response cache
	cache *cache.TTL[*Response]
}

// Request asks for recommendations for one user.
type Request struct {
	// UserID is the user to generate recommendations for.
	UserID string `json:"user_id" validate:"required"`

	// Limit is the number of recommendations to return. Zero means the
	// configured default; values above the configured maximum are clamped.
	Limit int `json:"limit,omitempty" validate:"min=0"`

	// Weights optionally overrides the configured signal weights for this
	// request. Nil uses the engine configuration.
	Weights *SignalWeights `json:"weights,omitempty"`

	// RequestID is a unique identifier for tracing. Generated if empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the result of a recommendation request.
type Response struct {
	// Items is the ranked recommendation list, descending by composite
	// score with productID ascending on ties.
	Items []Recommendation `json:"items"`

	// TotalCandidates is the number of distinct products any signal
	// touched before truncation.
	TotalCandidates int `json:"total_candidates"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	SignalsUsed []string  `json:"signals_used"`
	LatencyMS   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	ColdStart   bool      `json:"cold_start"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewComposer creates a recommendation composer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewComposer(cfg *Config, logger zerolog.Logger) (*Composer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Composer{
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		signals: make([]Signal, 0),
		cache:   cache.New[*Response](cfg.Cache.TTL, cfg.Cache.MaxEntries),
	}, nil
}

// SetProviders injects the catalog, order-history, and profile read models.
func (c *Composer) SetProviders(catalog CatalogProvider, orders OrderProvider, profiles ProfileProvider) {
	c.catalog = catalog
	c.orders = orders
	c.profiles = profiles
}

// RegisterSignal adds a signal to the blend.
func (c *Composer) RegisterSignal(s Signal) {
	c.sigMu.Lock()
	defer c.sigMu.Unlock()

	c.signals = append(c.signals, s)
	c.logger.Info().
		Str("signal", s.Name()).
		Msg("registered signal")
}

// SetRemoteScorer attaches the optional remote AI scorer. It only
// contributes when Weights.Remote is positive; its absence or failure is
// never fatal.
func (c *Composer) SetRemoteScorer(rs RemoteScorer) {
	c.remote = rs
}

// Recommend fetches snapshots from the configured providers and generates
// recommendations for the requested user.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) Recommend(ctx context.Context, req Request) (*Response, error) {
	if c.catalog == nil || c.orders == nil || c.profiles == nil {
		return nil, errors.New("providers not set")
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, &InputError{Field: "request", Reason: err.Error()}
	}

	snap, err := c.loadSnapshot(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	return c.RecommendSnapshot(ctx, req, snap)
}

// loadSnapshot assembles a request snapshot from the providers.
func (c *Composer) loadSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	catalog, err := c.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	orders, err := c.orders.OrderHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	profile, err := c.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	profiles, err := c.profiles.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	return &Snapshot{
		UserID:   userID,
		Profile:  profile,
		Catalog:  catalog,
		Orders:   orders,
		Profiles: profiles,
		Now:      time.Now(),
	}, nil
}

// RecommendSnapshot generates recommendations from a caller-supplied
// snapshot. Input invariants are checked up front: out-of-range preference
// or attribute values abort the request with an *InputError.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) RecommendSnapshot(ctx context.Context, req Request, snap *Snapshot) (*Response, error) {
	start := time.Now()
	req = c.prepareRequest(req)
	logger := c.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()

	if err := c.validateSnapshot(snap); err != nil {
		metrics.RecommendRequests.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	if resp := c.tryCachedResponse(req, snap, start); resp != nil {
		logger.Debug().Msg("cache hit")
		return resp, nil
	}

	weights := c.requestWeights(req)
	results := c.runSignals(ctx, snap)
	remoteScores := c.runRemote(ctx, snap, weights, logger)

	combined, breakdown, used := c.combineScores(results, remoteScores, weights, logger)

	resp := c.buildResponse(req, snap, combined, breakdown, used, start)
	c.cacheResponse(req, snap, resp)

	metrics.RecommendRequests.WithLabelValues("ok").Inc()
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())

	logger.Debug().
		Int("candidates", resp.TotalCandidates).
		Int("returned", len(resp.Items)).
		Bool("cold_start", resp.Metadata.ColdStart).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Limit <= 0 {
		req.Limit = c.config.Limits.DefaultLimit
	}
	if req.Limit > c.config.Limits.MaxLimit {
		req.Limit = c.config.Limits.MaxLimit
	}
	return req
}

// validateSnapshot enforces the profile and catalog range invariants.
func (c *Composer) validateSnapshot(snap *Snapshot) error {
	if snap == nil {
		return &InputError{Field: "snapshot", Reason: "must not be nil"}
	}
	if snap.Profile != nil {
		if err := snap.Profile.Validate(); err != nil {
			return err
		}
	}
	for i := range snap.Catalog {
		if err := snap.Catalog[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// requestWeights resolves the effective, normalized weights for a request.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) requestWeights(req Request) SignalWeights {
	w := c.config.Weights
	if req.Weights != nil {
		w = *req.Weights
	}
	return w.Normalize()
}

// signalResult holds the outcome of a single signal computation.
type signalResult struct {
	name   string
	scores map[string]float64
	err    error
}

// runSignals computes all registered signals in parallel against the shared
// read-only snapshot.
func (c *Composer) runSignals(ctx context.Context, snap *Snapshot) []signalResult {
	c.sigMu.RLock()
	signals := c.signals
	c.sigMu.RUnlock()

	results := make([]signalResult, len(signals))
	var wg sync.WaitGroup

	for i, sig := range signals {
		wg.Add(1)
		go func(idx int, s Signal) {
			defer wg.Done()
			sigStart := time.Now()

			sigCtx, cancel := context.WithTimeout(ctx, c.config.Limits.SignalTimeout)
			defer cancel()

			scores, err := s.Score(sigCtx, snap)
			results[idx] = signalResult{name: s.Name(), scores: scores, err: err}
			metrics.SignalDuration.WithLabelValues(s.Name()).Observe(time.Since(sigStart).Seconds())
		}(i, sig)
	}

	wg.Wait()
	return results
}

// runRemote calls the remote scorer when one is attached and weighted in.
// Any failure degrades to zero contribution.
func (c *Composer) runRemote(ctx context.Context, snap *Snapshot, weights SignalWeights, logger zerolog.Logger) map[string]float64 {
	if c.remote == nil || weights.Remote <= 0 {
		return nil
	}

	candidates := make([]string, len(snap.Catalog))
	for i := range snap.Catalog {
		candidates[i] = snap.Catalog[i].ID
	}

	remoteCtx, cancel := context.WithTimeout(ctx, c.config.Limits.SignalTimeout)
	defer cancel()

	scores, err := c.remote.ScoreCandidates(remoteCtx, snap.Profile, candidates)
	if err != nil {
		metrics.RemoteFailures.Inc()
		logger.Warn().Err(err).Msg("remote scorer failed, contributing zero")
		return nil
	}
	return scores
}

// combineScores blends per-signal score maps into composite scores over the
// union of all touched products. A product missing from a signal takes 0
// for that component.
func (c *Composer) combineScores(results []signalResult, remoteScores map[string]float64, weights SignalWeights, logger zerolog.Logger) (map[string]float64, map[string]map[string]float64, []string) {
	weightMap := weights.ToMap()
	combined := make(map[string]float64)
	breakdown := make(map[string]map[string]float64)
	used := make([]string, 0, len(results)+1)

	accumulate := func(name string, scores map[string]float64) {
		w := weightMap[name]
		if w <= 0 || len(scores) == 0 {
			return
		}
		used = append(used, name)
		for id, score := range scores {
			combined[id] += w * score
			if breakdown[id] == nil {
				breakdown[id] = make(map[string]float64)
			}
			breakdown[id][name] = score
		}
	}

	for _, res := range results {
		if res.err != nil {
			logger.Warn().
				Str("signal", res.name).
				Err(res.err).
				Msg("signal failed, contributing zero")
			continue
		}
		accumulate(res.name, res.scores)
	}
	accumulate(SignalRemote, remoteScores)

	sort.Strings(used)
	return combined, breakdown, used
}

// buildResponse ranks the combined scores and assembles the response,
// falling back to the documented cold-start ordering when no signal
// produced anything.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) buildResponse(req Request, snap *Snapshot, combined map[string]float64, breakdown map[string]map[string]float64, used []string, start time.Time) *Response {
	coldStart := false
	var items []Recommendation

	if len(combined) == 0 {
		// Cold start: no profile and no usable history anywhere. Return
		// the catalog by ascending base price so new users still see a
		// deterministic, documented result instead of nothing.
		coldStart = len(snap.Catalog) > 0
		items = coldStartItems(snap.Catalog, req.Limit)
	} else {
		items = rankCombined(combined, breakdown, req.Limit)
	}

	return &Response{
		Items:           items,
		TotalCandidates: len(combined),
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			UserID:      req.UserID,
			SignalsUsed: used,
			LatencyMS:   time.Since(start).Milliseconds(),
			ColdStart:   coldStart,
			Timestamp:   time.Now(),
		},
	}
}

// rankCombined sorts composite scores descending, productID ascending on
// ties, and truncates to limit. Keying by productID deduplicates.
func rankCombined(combined map[string]float64, breakdown map[string]map[string]float64, limit int) []Recommendation {
	items := make([]Recommendation, 0, len(combined))
	for id, score := range combined {
		items = append(items, Recommendation{
			ProductID: id,
			Score:     score,
			Scores:    breakdown[id],
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ProductID < items[j].ProductID
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// coldStartItems returns the catalog by ascending base price, productID
// ascending on ties, truncated to limit.
func coldStartItems(catalog []Product, limit int) []Recommendation {
	sorted := make([]Product, len(catalog))
	copy(sorted, catalog)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BasePrice != sorted[j].BasePrice {
			return sorted[i].BasePrice < sorted[j].BasePrice
		}
		return sorted[i].ID < sorted[j].ID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	items := make([]Recommendation, len(sorted))
	for i := range sorted {
		items[i] = Recommendation{ProductID: sorted[i].ID, Score: 0}
	}
	return items
}

// cacheKey builds a cache key. The profile version is part of the key so a
// preference update naturally invalidates stale entries.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func (c *Composer) cacheKey(req Request, snap *Snapshot) string {
	var version int64
	if snap.Profile != nil {
		version = snap.Profile.Version
	}
	return fmt.Sprintf("rec:%s:%d:%d", req.UserID, req.Limit, version)
}

// tryCachedResponse returns a copy of a valid cached response, or nil.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) tryCachedResponse(req Request, snap *Snapshot, start time.Time) *Response {
	if !c.config.Cache.Enabled || req.Weights != nil {
		return nil
	}

	cached, ok := c.cache.Get(c.cacheKey(req, snap))
	if !ok {
		metrics.CacheMisses.Inc()
		return nil
	}

	metrics.CacheHits.Inc()
	items := make([]Recommendation, len(cached.Items))
	copy(items, cached.Items)

	resp := &Response{
		Items:           items,
		TotalCandidates: cached.TotalCandidates,
		Metadata:        cached.Metadata,
	}
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	return resp
}

// cacheResponse stores a response when caching is enabled.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (c *Composer) cacheResponse(req Request, snap *Snapshot, resp *Response) {
	if !c.config.Cache.Enabled || req.Weights != nil {
		return
	}

	c.cache.Set(c.cacheKey(req, snap), resp)
}

// ClearCache removes all cached responses.
func (c *Composer) ClearCache() {
	c.cache.Clear()
}

// CacheStats returns the response cache counters for health reporting.
func (c *Composer) CacheStats() cache.Stats {
	return c.cache.GetStats()
}

// GetConfig returns a copy of the current configuration.
func (c *Composer) GetConfig() *Config {
	return c.config.Clone()
}
