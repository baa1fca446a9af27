// Package dispatch routes actions to their domain handlers exactly once. The
// dispatcher owns the action's executed flag: it is a guard checked and set
// around handler invocation, so a successfully dispatched action can never
// run its side effect again, while a failed one stays retryable.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifehub/internal/domain"
	"lifehub/internal/logging"
)

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome reports the result of one dispatch.
type Outcome struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"` // set on success
	Reason string `json:"reason,omitempty"` // set on failure
}

// Success builds a successful outcome.
func Success(detail string) Outcome { return Outcome{OK: true, Detail: detail} }

// Failure builds a failed outcome.
func Failure(reason string) Outcome { return Outcome{Reason: reason} }

// Failure reasons surfaced to callers. Stable strings: the presentation
// layer renders them directly.
const (
	ReasonUnknownType  = "unknown action type"
	ReasonHandlerError = "handler error"
)

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Severity grades a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is the fire-and-forget payload handed to the external
// notification emitter after every dispatch.
type Notification struct {
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Duration time.Duration `json:"duration"`
}

// Emitter delivers notifications to the user. External collaborator.
type Emitter interface {
	Emit(n Notification)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(n Notification)

// Emit implements Emitter.
func (f EmitterFunc) Emit(n Notification) { f(n) }

// =============================================================================
// AUDIT
// =============================================================================

// AuditLog records every dispatch attempt. Optional collaborator; audit
// failures never affect the dispatch outcome.
type AuditLog interface {
	RecordDispatch(ctx context.Context, action *domain.Action, outcome Outcome) error
}

// =============================================================================
// DISPATCHER
// =============================================================================

// defaultNotificationDuration is how long outcome toasts stay visible.
const defaultNotificationDuration = 4 * time.Second

// Dispatcher executes actions through the registry with an idempotency
// guard. Concurrent dispatch of the same action id resolves to a single net
// execution: the first invocation is authoritative, later ones observe the
// guard and no-op.
type Dispatcher struct {
	mu         sync.Mutex
	inProgress map[uuid.UUID]struct{}

	registry *Registry
	emitter  Emitter
	audit    AuditLog
}

// New builds a dispatcher. emitter and audit may be nil.
func New(registry *Registry, emitter Emitter, audit AuditLog) *Dispatcher {
	return &Dispatcher{
		inProgress: make(map[uuid.UUID]struct{}),
		registry:   registry,
		emitter:    emitter,
		audit:      audit,
	}
}

// Dispatch executes the action's handler at most once and reports the
// outcome. Never panics and never returns an error: every failure mode is
// folded into the Outcome, and the executed flag flips only on success.
func (d *Dispatcher) Dispatch(ctx context.Context, action *domain.Action) Outcome {
	if action == nil {
		return Failure(ReasonUnknownType)
	}

	// Guard: already executed, or mid-flight on another caller. Both are
	// no-op successes - dispatch is idempotent by construction.
	d.mu.Lock()
	if action.Executed() {
		d.mu.Unlock()
		logging.DispatchDebug("action %s already executed, no-op", action.ID)
		return Success("already done")
	}
	if _, busy := d.inProgress[action.ID]; busy {
		d.mu.Unlock()
		logging.DispatchDebug("action %s dispatch in progress, no-op", action.ID)
		return Success("already in progress")
	}
	d.inProgress[action.ID] = struct{}{}
	d.mu.Unlock()

	outcome := d.execute(ctx, action)

	d.mu.Lock()
	if outcome.OK {
		// Sole writer of the executed flag; set only on success so a failed
		// action remains retryable.
		action.MarkExecuted()
	}
	delete(d.inProgress, action.ID)
	d.mu.Unlock()

	d.notify(action, outcome)
	if d.audit != nil {
		if err := d.audit.RecordDispatch(ctx, action, outcome); err != nil {
			logging.Get(logging.CategoryDispatch).Warnf("audit record failed for %s: %v", action.ID, err)
		}
	}
	return outcome
}

// execute resolves and invokes the handler, containing panics.
func (d *Dispatcher) execute(ctx context.Context, action *domain.Action) (outcome Outcome) {
	handler, ok := d.registry.Resolve(action.Type)
	if !ok {
		logging.DispatchError("no handler for action type %q (action %s)", action.Type, action.ID)
		return Failure(ReasonUnknownType)
	}

	defer func() {
		if r := recover(); r != nil {
			logging.DispatchError("handler panic for action %s (%s): %v", action.ID, action.Type, r)
			outcome = Failure(ReasonHandlerError)
		}
	}()

	start := time.Now()
	detail, err := handler.Execute(ctx, action.Payload)
	if err != nil {
		logging.DispatchError("handler failed for action %s (%s) after %v: %v",
			action.ID, action.Type, time.Since(start), err)
		return Failure(ReasonHandlerError)
	}

	d.registry.recordExecution(action.Type)
	logging.Dispatch("action %s (%s) executed in %v", action.ID, action.Type, time.Since(start))
	if detail == "" {
		detail = "Done"
	}
	return Success(detail)
}

// notify surfaces the outcome as a user-visible notification.
func (d *Dispatcher) notify(action *domain.Action, outcome Outcome) {
	if d.emitter == nil {
		return
	}
	n := Notification{
		Title:    action.Title,
		Duration: defaultNotificationDuration,
	}
	if outcome.OK {
		n.Message = outcome.Detail
		n.Severity = SeveritySuccess
	} else {
		n.Message = outcome.Reason
		n.Severity = SeverityError
	}
	d.emitter.Emit(n)
}
