// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package metrics exposes Prometheus instrumentation for the recommendation
// engine: request throughput and latency, per-signal compute time, response
// cache efficiency, remote scorer health, and preference-update contention.
//
// Metrics register against the default registry via promauto; serve them
// with promhttp.Handler on a /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests counts recommendation requests by outcome
	// (ok, invalid_input, error).
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	// RecommendDuration tracks end-to-end recommendation latency.
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SignalDuration tracks per-signal compute time.
	SignalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_signal_duration_seconds",
			Help:    "Per-signal score computation time in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"signal"},
	)

	// CacheHits counts response cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Recommendation response cache hits",
		},
	)

	// CacheMisses counts response cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Recommendation response cache misses",
		},
	)

	// RemoteFailures counts failed remote scorer calls. Failures degrade
	// the response rather than failing it, so this is the only place they
	// surface besides logs.
	RemoteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remote_scorer_failures_total",
			Help: "Remote style scorer calls that failed or were rejected by the circuit breaker",
		},
	)

	// RemoteRequestDuration tracks remote scorer call latency.
	RemoteRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remote_scorer_duration_seconds",
			Help:    "Remote style scorer request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CircuitBreakerState reports the remote scorer breaker state
	// (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// UpdateConflicts counts lost compare-and-swap races during
	// preference updates. Retries are expected under load; a climbing
	// rate means hot users.
	UpdateConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preference_update_conflicts_total",
			Help: "Preference updates that lost an optimistic concurrency race",
		},
	)

	// ProfilesStored reports the current number of stored style profiles.
	ProfilesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "style_profiles_stored",
			Help: "Current number of stored style profiles",
		},
	)
)
