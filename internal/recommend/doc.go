// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

// Package recommend converts a user's style preferences and behavioral
// history into ranked product suggestions.
//
// The Composer blends three deterministic signals — style match against the
// user's preference vector, collaborative filtering over peer purchases,
// and popularity aggregation over order history — into one ranked,
// deduplicated list with a per-component score breakdown for
// explainability. An optional remote AI scorer can be blended in as a
// fourth weighted term; its absence or failure contributes zero, never an
// error.
//
// # Statelessness
//
// The engine is stateless computation over externally supplied snapshots.
// All query paths are pure and safe for unlimited concurrent callers; the
// only mutating operation is the preference updater in the profile
// subpackage, serialized per user via optimistic concurrency.
//
// # Determinism
//
// Every ranking sorts descending by score with productID ascending on
// ties. Running the same request against the same snapshot twice yields
// identical output.
//
// This package has no dependencies on other internal packages beyond the
// ambient metrics and validation helpers; providers are injected as
// interfaces so it never dictates where catalog, order, or profile data
// lives.
package recommend
