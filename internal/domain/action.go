package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ACTION TYPES
// =============================================================================

// ActionType is the closed enumeration of executable action kinds. The
// dispatcher routes on this value; anything outside the set is rejected.
type ActionType string

const (
	ActionMessage       ActionType = "message"
	ActionProductSearch ActionType = "product_search"
	ActionBudgetCreate  ActionType = "budget_create"
	ActionWorkoutPlan   ActionType = "workout_plan"
	ActionTripPlan      ActionType = "trip_plan"
	ActionSocialPost    ActionType = "social_post"
	ActionReminder      ActionType = "reminder"
)

// Valid reports whether the type is a member of the closed action set.
func (t ActionType) Valid() bool {
	switch t {
	case ActionMessage, ActionProductSearch, ActionBudgetCreate,
		ActionWorkoutPlan, ActionTripPlan, ActionSocialPost, ActionReminder:
		return true
	}
	return false
}

// =============================================================================
// PAYLOAD UNION
// =============================================================================
// Each action type carries its own strongly-typed payload. The sealed
// interface keeps the union closed so the dispatcher can pattern-match on
// payload shape instead of guessing at map keys.

// Payload is the sealed union of per-type action payloads.
type Payload interface {
	ActionType() ActionType
}

// MessagePayload targets a send-message action at a resolved recipient.
type MessagePayload struct {
	RecipientID   string `json:"recipient_id,omitempty"`
	RecipientName string `json:"recipient_name"`
	Body          string `json:"body,omitempty"`
}

// ProductSearchPayload carries the catalog query for a product search.
type ProductSearchPayload struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
}

// BudgetCreatePayload describes a budget to create in the finance module.
type BudgetCreatePayload struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Period   string  `json:"period"`
}

// WorkoutPlanPayload describes a fitness plan request.
type WorkoutPlanPayload struct {
	Goal        string `json:"goal"`
	DaysPerWeek int    `json:"days_per_week"`
	Level       string `json:"level"`
}

// TripPlanPayload describes a travel planning request.
type TripPlanPayload struct {
	Destination string  `json:"destination"`
	Days        int     `json:"days"`
	Budget      float64 `json:"budget,omitempty"`
}

// SocialPostPayload carries the content for a social post draft.
type SocialPostPayload struct {
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
}

// ReminderPayload schedules a reminder notification.
type ReminderPayload struct {
	Title string    `json:"title"`
	At    time.Time `json:"at"`
	Notes string    `json:"notes,omitempty"`
}

func (MessagePayload) ActionType() ActionType       { return ActionMessage }
func (ProductSearchPayload) ActionType() ActionType { return ActionProductSearch }
func (BudgetCreatePayload) ActionType() ActionType  { return ActionBudgetCreate }
func (WorkoutPlanPayload) ActionType() ActionType   { return ActionWorkoutPlan }
func (TripPlanPayload) ActionType() ActionType      { return ActionTripPlan }
func (SocialPostPayload) ActionType() ActionType    { return ActionSocialPost }
func (ReminderPayload) ActionType() ActionType      { return ActionReminder }

// =============================================================================
// ACTION
// =============================================================================

// Action is an executable unit of work attached to an assistant message or
// materialized from an advisory template. The executed flag is owned by the
// dispatcher: it is a guard against re-execution, not merely a display flag.
type Action struct {
	ID          uuid.UUID  `json:"id"`
	Type        ActionType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Payload     Payload    `json:"payload"`
	CreatedAt   time.Time  `json:"created_at"`

	executed atomic.Bool
}

// Executed reports whether the action has been successfully dispatched.
func (a *Action) Executed() bool {
	return a.executed.Load()
}

// MarkExecuted flips the guard to executed. Returns false if the action was
// already executed, making the check-and-set a single atomic step for the
// dispatcher's idempotency guarantee.
func (a *Action) MarkExecuted() bool {
	return a.executed.CompareAndSwap(false, true)
}

// =============================================================================
// ACTION TEMPLATE
// =============================================================================

// Template is an action description not yet materialized with an id or
// executed flag. Templates attached to advisory items or produced by the
// classifier become real Actions only at the moment of user interaction, so
// the same template can be triggered repeatedly without leaking execution
// state between materializations.
type Template struct {
	Type        ActionType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Payload     Payload    `json:"payload"`
}

// Materialize mints a fresh Action from the template. Each call generates a
// new unique id; ids are never reused.
func (t Template) Materialize(now time.Time) *Action {
	return &Action{
		ID:          uuid.New(),
		Type:        t.Type,
		Title:       t.Title,
		Description: t.Description,
		Payload:     t.Payload,
		CreatedAt:   now,
	}
}
