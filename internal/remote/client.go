// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package remote implements the HTTP client for the external AI style
// scorer. Calls run behind a circuit breaker so a degraded upstream cannot
// stall recommendation requests: once the breaker opens, calls fail fast
// and the engine composes from local signals only.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/swanz/styleengine/internal/logging"
	"github.com/swanz/styleengine/internal/metrics"
	"github.com/swanz/styleengine/internal/recommend"
)

// Config configures the remote scorer client.
type Config struct {
	// URL is the score endpoint. Empty disables the remote signal.
	URL string `koanf:"url" json:"url" validate:"omitempty,url"`

	// Timeout bounds each HTTP call.
	// Default: 3s.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// FailureThreshold is the number of consecutive failures before the
	// breaker opens.
	// Default: 5.
	FailureThreshold uint32 `koanf:"failure_threshold" json:"failure_threshold"`

	// OpenTimeout is how long the breaker stays open before probing.
	// Default: 30s.
	OpenTimeout time.Duration `koanf:"open_timeout" json:"open_timeout"`

	// MaxRequests is the number of probe requests allowed half-open.
	// Default: 3.
	MaxRequests uint32 `koanf:"max_requests" json:"max_requests"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          3 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		MaxRequests:      3,
	}
}

// Client calls the external style scorer over HTTP. It implements
// recommend.RemoteScorer.
type Client struct {
	config  Config
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[map[string]float64]
	logger  zerolog.Logger
}

var _ recommend.RemoteScorer = (*Client)(nil)

// scoreRequest is the upstream request body.
type scoreRequest struct {
	UserID      string                     `json:"user_id"`
	Preferences recommend.PreferenceVector `json:"preferences"`
	Candidates  []string                   `json:"candidates"`
}

// scoreResponse is the upstream response body. Scores are expected in
// [0, 1]; out-of-range values are clamped rather than rejected.
type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// NewClient creates a remote scorer client.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}

	logger := logging.With().Str("component", "remote_scorer").Logger()

	settings := gobreaker.Settings{
		Name:        "remote-scorer",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Client{
		config:  cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[map[string]float64](settings),
		logger:  logger,
	}
}

// ScoreCandidates implements recommend.RemoteScorer. Breaker rejections and
// upstream failures return an error; the composer degrades them to a zero
// contribution.
func (c *Client) ScoreCandidates(ctx context.Context, profile *recommend.StyleProfile, candidateIDs []string) (map[string]float64, error) {
	if c.config.URL == "" {
		return nil, errors.New("remote scorer not configured")
	}
	if profile == nil || len(candidateIDs) == 0 {
		return map[string]float64{}, nil
	}

	start := time.Now()
	scores, err := c.breaker.Execute(func() (map[string]float64, error) {
		return c.call(ctx, profile, candidateIDs)
	})
	metrics.RemoteRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// call performs one HTTP round trip.
func (c *Client) call(ctx context.Context, profile *recommend.StyleProfile, candidateIDs []string) (map[string]float64, error) {
	body, err := json.Marshal(scoreRequest{
		UserID:      profile.UserID,
		Preferences: profile.Preferences,
		Candidates:  candidateIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote scorer call: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote scorer status %d", resp.StatusCode)
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}

	out := make(map[string]float64, len(decoded.Scores))
	for id, score := range decoded.Scores {
		out[id] = clamp01(score)
	}
	return out, nil
}

// State returns the current breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// stateValue maps breaker states onto the gauge encoding.
func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
