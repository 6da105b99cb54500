// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// StyleCategory is one entry in the fixed enumeration of fashion styles used
// as the common axis for user preferences and product attributes.
type StyleCategory string

const (
	CategoryCasual     StyleCategory = "CASUAL"
	CategoryFormal     StyleCategory = "FORMAL"
	CategorySporty     StyleCategory = "SPORTY"
	CategoryBohemian   StyleCategory = "BOHEMIAN"
	CategoryVintage    StyleCategory = "VINTAGE"
	CategoryMinimalist StyleCategory = "MINIMALIST"
	CategoryStreetwear StyleCategory = "STREETWEAR"
	CategoryElegant    StyleCategory = "ELEGANT"
)

// Categories lists every style category in a fixed order.
var Categories = []StyleCategory{
	CategoryCasual,
	CategoryFormal,
	CategorySporty,
	CategoryBohemian,
	CategoryVintage,
	CategoryMinimalist,
	CategoryStreetwear,
	CategoryElegant,
}

// KnownCategory reports whether c is part of the fixed enumeration.
func KnownCategory(c StyleCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PreferenceVector maps style categories to affinity scores in [0, 100].
// A category absent from the map reads as 0 (neutral-low, not "no opinion").
type PreferenceVector map[StyleCategory]float64

// AttributeVector maps style categories to attribute values in [0, 1].
// Absence of a category means "not applicable", which is distinct from 0.
type AttributeVector map[StyleCategory]float64

// StyleProfile is a user's style preference document. It is owned by exactly
// one user and mutated only by the preference updater and by full quiz
// resubmission. Version is the optimistic concurrency token, incremented on
// every mutation.
type StyleProfile struct {
	// UserID is the opaque identifier of the owning user. Immutable.
	UserID string `json:"user_id"`

	// Preferences maps style categories to scores in [0, 100].
	Preferences PreferenceVector `json:"preferences"`

	// Weights optionally assigns per-category weights used by the style
	// matcher. A nil map means every category has weight 1.
	Weights map[StyleCategory]float64 `json:"weights,omitempty"`

	// RawQuizResponses retains the original quiz input for audit and
	// recompute. The engine never interprets it.
	RawQuizResponses json.RawMessage `json:"raw_quiz_responses,omitempty"`

	// Version increases monotonically on every mutation.
	Version int64 `json:"version"`

	// UpdatedAt is the timestamp of the last mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the profile's range invariants. Scores outside [0, 100]
// or unknown categories yield an *InputError; the engine aborts rather than
// silently clamping caller input.
func (p *StyleProfile) Validate() error {
	if p.UserID == "" {
		return &InputError{Field: "user_id", Reason: "must not be empty"}
	}
	for cat, score := range p.Preferences {
		if !KnownCategory(cat) {
			return &InputError{Field: "preferences", Value: string(cat), Reason: "unknown style category"}
		}
		if score < 0 || score > 100 {
			return &InputError{Field: "preferences." + string(cat), Value: score, Reason: "score must be in [0, 100]"}
		}
	}
	for cat, w := range p.Weights {
		if !KnownCategory(cat) {
			return &InputError{Field: "weights", Value: string(cat), Reason: "unknown style category"}
		}
		if w < 0 {
			return &InputError{Field: "weights." + string(cat), Value: w, Reason: "weight must be non-negative"}
		}
	}
	return nil
}

// Clone returns a deep copy of the profile.
func (p *StyleProfile) Clone() *StyleProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Preferences != nil {
		cp.Preferences = make(PreferenceVector, len(p.Preferences))
		for k, v := range p.Preferences {
			cp.Preferences[k] = v
		}
	}
	if p.Weights != nil {
		cp.Weights = make(map[StyleCategory]float64, len(p.Weights))
		for k, v := range p.Weights {
			cp.Weights[k] = v
		}
	}
	if p.RawQuizResponses != nil {
		cp.RawQuizResponses = make(json.RawMessage, len(p.RawQuizResponses))
		copy(cp.RawQuizResponses, p.RawQuizResponses)
	}
	return &cp
}

// TopCategories returns the user's k highest-scored categories, descending
// by score with ties broken by category name for determinism. Zero-scored
// categories are excluded: an unset preference is no preference.
func (p *StyleProfile) TopCategories(k int) []StyleCategory {
	if p == nil || k <= 0 {
		return nil
	}

	type catScore struct {
		cat   StyleCategory
		score float64
	}
	scored := make([]catScore, 0, len(p.Preferences))
	for cat, score := range p.Preferences {
		if score > 0 {
			scored = append(scored, catScore{cat, score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].cat < scored[j].cat
	})

	if k > len(scored) {
		k = len(scored)
	}
	top := make([]StyleCategory, k)
	for i := 0; i < k; i++ {
		top[i] = scored[i].cat
	}
	return top
}

// Product is the read-only attribute view of a catalog product consumed by
// the engine. The catalog itself is owned elsewhere.
type Product struct {
	// ID is the opaque product identifier.
	ID string `json:"id"`

	// StyleLine is the product's primary style category.
	StyleLine StyleCategory `json:"style_line"`

	// Attributes maps style categories to values in [0, 1]. May be empty,
	// in which case the vector derives solely from StyleLine.
	Attributes AttributeVector `json:"attributes,omitempty"`

	// Colors is the set of color identifiers.
	Colors []string `json:"colors,omitempty"`

	// BasePrice is the non-negative base price.
	BasePrice float64 `json:"base_price"`
}

// EffectiveAttributes returns the product's attribute vector, deriving
// {StyleLine: 1.0} when no finer-grained attributes exist.
func (p *Product) EffectiveAttributes() AttributeVector {
	if len(p.Attributes) > 0 {
		return p.Attributes
	}
	if p.StyleLine == "" {
		return nil
	}
	return AttributeVector{p.StyleLine: 1.0}
}

// Validate checks the product's range invariants, returning an *InputError
// on violation.
func (p *Product) Validate() error {
	if p.ID == "" {
		return &InputError{Field: "id", Reason: "must not be empty"}
	}
	if p.StyleLine != "" && !KnownCategory(p.StyleLine) {
		return &InputError{Field: "style_line", Value: string(p.StyleLine), Reason: "unknown style category"}
	}
	if p.BasePrice < 0 {
		return &InputError{Field: "base_price", Value: p.BasePrice, Reason: "must be non-negative"}
	}
	for cat, v := range p.Attributes {
		if !KnownCategory(cat) {
			return &InputError{Field: "attributes", Value: string(cat), Reason: "unknown style category"}
		}
		if v < 0 || v > 1 {
			return &InputError{Field: "attributes." + string(cat), Value: v, Reason: "value must be in [0, 1]"}
		}
	}
	return nil
}

// InteractionKind classifies interaction events for implicit feedback.
type InteractionKind int

const (
	// InteractionView indicates the user viewed the product.
	InteractionView InteractionKind = iota
	// InteractionLike indicates the user liked the product.
	InteractionLike
	// InteractionPurchase indicates the user purchased the product.
	InteractionPurchase
	// InteractionDismiss indicates the user dismissed the product.
	InteractionDismiss
)

// String returns a human-readable name for the interaction kind.
func (k InteractionKind) String() string {
	switch k {
	case InteractionView:
		return "view"
	case InteractionLike:
		return "like"
	case InteractionPurchase:
		return "purchase"
	case InteractionDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// Weight returns the signed implicit feedback weight for this kind.
// Dismissals carry negative weight so they push preferences away.
func (k InteractionKind) Weight() float64 {
	switch k {
	case InteractionView:
		return 1
	case InteractionLike:
		return 3
	case InteractionPurchase:
		return 5
	case InteractionDismiss:
		return -2
	default:
		return 0
	}
}

// InteractionEvent is an observed user-product interaction. Events are
// inputs to the preference updater and are not persisted by the engine.
type InteractionEvent struct {
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Kind      InteractionKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderItem is one purchased line item from the order history read model.
type OrderItem struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	OrderedAt time.Time `json:"ordered_at"`
}

// Component score keys reported in Recommendation.Scores.
const (
	SignalStyleMatch    = "style_match"
	SignalCollaborative = "collaborative"
	SignalPopularity    = "popularity"
	SignalRemote        = "remote"
)

// Recommendation is one ranked product suggestion with its component score
// breakdown for explainability.
type Recommendation struct {
	// ProductID identifies the recommended product.
	ProductID string `json:"product_id"`

	// Score is the weighted composite score. Higher is more relevant.
	Score float64 `json:"score"`

	// Scores breaks the composite down by component signal.
	Scores map[string]float64 `json:"scores,omitempty"`
}

// ScoredProduct pairs a product with a single-signal score, used by the
// standalone popularity and collaborative operations.
type ScoredProduct struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// Snapshot is the externally supplied, read-only data a recommendation
// request operates on. The engine holds no state of its own, so any number
// of requests can share a snapshot concurrently.
type Snapshot struct {
	// UserID is the user recommendations are generated for.
	UserID string

	// Profile is the user's style profile, or nil for a user who has not
	// completed the quiz. A nil profile disables the style-match signal.
	Profile *StyleProfile

	// Catalog is the product attribute view.
	Catalog []Product

	// Orders is the flattened order line-item history across all users.
	Orders []OrderItem

	// Profiles contains all users' style profiles for peer matching.
	Profiles []StyleProfile

	// Now is the reference time for recency decay. Zero means decay is
	// computed against the newest order in the snapshot.
	Now time.Time
}

// Signal scores catalog products from a snapshot. Implementations must be
// pure: no side effects, deterministic for identical snapshots, and safe
// for concurrent use.
type Signal interface {
	// Name returns the component key ("style_match", "collaborative",
	// "popularity") used for weighting and score breakdowns.
	Name() string

	// Score returns productID -> score in [0, 1] for products the signal
	// has an opinion on. An empty map is a valid outcome, not an error.
	Score(ctx context.Context, snap *Snapshot) (map[string]float64, error)
}

// RemoteScorer is the optional fourth signal: an external AI service that
// scores candidates. Failures must degrade to zero contribution.
type RemoteScorer interface {
	ScoreCandidates(ctx context.Context, profile *StyleProfile, candidateIDs []string) (map[string]float64, error)
}

// CatalogProvider supplies the product attribute view.
type CatalogProvider interface {
	Catalog(ctx context.Context) ([]Product, error)
}

// OrderProvider supplies purchase line items for popularity and
// collaborative computation.
type OrderProvider interface {
	OrderHistory(ctx context.Context) ([]OrderItem, error)
}

// ProfileProvider supplies style profiles. Profile returns (nil, nil) for a
// user without one; absence degrades the style-match signal rather than
// failing the request.
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (*StyleProfile, error)
	Profiles(ctx context.Context) ([]StyleProfile, error)
}
