package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ADVISORY ITEMS
// =============================================================================

// AdvisoryKind distinguishes the three ranked advisory collections.
type AdvisoryKind string

const (
	KindInsight        AdvisoryKind = "insight"
	KindRecommendation AdvisoryKind = "recommendation"
	KindPrediction     AdvisoryKind = "prediction"
)

// Valid reports whether the kind is a member of the closed advisory set.
func (k AdvisoryKind) Valid() bool {
	switch k {
	case KindInsight, KindRecommendation, KindPrediction:
		return true
	}
	return false
}

// Priority ranks recommendations. Insights and predictions carry a
// confidence score instead.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// AdvisoryItem is a pre-computed insight, recommendation, or prediction
// surfaced to the user independent of any conversation turn. Items are
// immutable once created; they are produced by an external advisory
// generator and only consumed here.
type AdvisoryItem struct {
	ID     uuid.UUID    `json:"id"`
	Kind   AdvisoryKind `json:"kind"`
	Module ModuleTag    `json:"module"`
	Title  string       `json:"title"`
	Body   string       `json:"body"`

	// Confidence in [0,1] is set for insights and predictions.
	Confidence float64 `json:"confidence,omitempty"`
	// Priority is set for recommendations.
	Priority Priority `json:"priority,omitempty"`

	// Template, when present, is materialized into a real Action only when
	// the user triggers it.
	Template  *Template `json:"template,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
