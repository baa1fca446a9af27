package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifehub/internal/domain"
	"lifehub/internal/logging"
)

// =============================================================================
// HANDLER REGISTRY
// =============================================================================
// The registry is the fixed routing table from action type to domain handler.
// Handlers are external collaborators: the dispatcher only cares whether they
// succeed or fail, their return detail is surfaced to the user verbatim.

// Handler executes the domain side effect for one action type. The returned
// detail is a short human-readable summary ("Budget created"). Errors and
// panics are contained at the dispatcher boundary.
type Handler interface {
	Execute(ctx context.Context, payload domain.Payload) (detail string, err error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload domain.Payload) (string, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, payload domain.Payload) (string, error) {
	return f(ctx, payload)
}

// registration tracks a handler with execution metadata.
type registration struct {
	handler      Handler
	registeredAt time.Time
	executeCount int64
}

// HandlerInfo is the read-only view of a registration.
type HandlerInfo struct {
	Type         domain.ActionType `json:"type"`
	RegisteredAt time.Time         `json:"registered_at"`
	ExecuteCount int64             `json:"execute_count"`
}

// Registry maps action types to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.ActionType]*registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.ActionType]*registration)}
}

// Register installs a handler for an action type, replacing any previous one.
func (r *Registry) Register(t domain.ActionType, h Handler) error {
	if !t.Valid() {
		return fmt.Errorf("register handler: unknown action type %q", t)
	}
	if h == nil {
		return fmt.Errorf("register handler: nil handler for %q", t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = &registration{handler: h, registeredAt: time.Now()}
	logging.DispatchDebug("handler registered type=%s", t)
	return nil
}

// Resolve returns the handler for an action type.
func (r *Registry) Resolve(t domain.ActionType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.handlers[t]
	if !ok {
		return nil, false
	}
	return reg.handler, true
}

// List returns registration metadata for every installed handler, in action
// type declaration order.
func (r *Registry) List() []HandlerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order := []domain.ActionType{
		domain.ActionMessage, domain.ActionProductSearch, domain.ActionBudgetCreate,
		domain.ActionWorkoutPlan, domain.ActionTripPlan, domain.ActionSocialPost,
		domain.ActionReminder,
	}
	out := make([]HandlerInfo, 0, len(r.handlers))
	for _, t := range order {
		if reg, ok := r.handlers[t]; ok {
			out = append(out, HandlerInfo{
				Type:         t,
				RegisteredAt: reg.registeredAt,
				ExecuteCount: reg.executeCount,
			})
		}
	}
	return out
}

// recordExecution bumps the handler's execute count.
func (r *Registry) recordExecution(t domain.ActionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.handlers[t]; ok {
		reg.executeCount++
	}
}
