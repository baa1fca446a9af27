package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"lifehub/internal/domain"
)

func newAction(t domain.ActionType, payload domain.Payload) *domain.Action {
	return &domain.Action{
		ID:        uuid.New(),
		Type:      t,
		Title:     "Test action",
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// collectEmitter records every notification it receives.
type collectEmitter struct {
	mu            sync.Mutex
	notifications []Notification
}

func (e *collectEmitter) Emit(n Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = append(e.notifications, n)
}

func (e *collectEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.notifications)
}

func TestDispatch_Success(t *testing.T) {
	reg := NewRegistry()
	var calls int32
	err := reg.Register(domain.ActionWorkoutPlan, HandlerFunc(func(_ context.Context, p domain.Payload) (string, error) {
		atomic.AddInt32(&calls, 1)
		wp := p.(domain.WorkoutPlanPayload)
		if wp.DaysPerWeek != 4 {
			t.Errorf("payload not passed through, got %d days", wp.DaysPerWeek)
		}
		return "Workout plan created", nil
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	emitter := &collectEmitter{}
	d := New(reg, emitter, nil)
	action := newAction(domain.ActionWorkoutPlan, domain.WorkoutPlanPayload{Goal: "strength", DaysPerWeek: 4, Level: "beginner"})

	outcome := d.Dispatch(context.Background(), action)
	if !outcome.OK {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Detail != "Workout plan created" {
		t.Errorf("handler detail not surfaced, got %q", outcome.Detail)
	}
	if !action.Executed() {
		t.Error("executed flag must flip on success")
	}
	if calls != 1 {
		t.Errorf("expected 1 handler call, got %d", calls)
	}
	if emitter.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", emitter.count())
	}
	if n := emitter.notifications[0]; n.Severity != SeveritySuccess || n.Message != "Workout plan created" {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestDispatch_SecondDispatchIsNoOp(t *testing.T) {
	reg := NewRegistry()
	var calls int32
	reg.Register(domain.ActionReminder, HandlerFunc(func(context.Context, domain.Payload) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "Reminder set", nil
	}))

	emitter := &collectEmitter{}
	d := New(reg, emitter, nil)
	action := newAction(domain.ActionReminder, domain.ReminderPayload{Title: "renew passport"})

	first := d.Dispatch(context.Background(), action)
	second := d.Dispatch(context.Background(), action)
	if !first.OK || !second.OK {
		t.Fatalf("both outcomes should succeed: %+v %+v", first, second)
	}
	if calls != 1 {
		t.Fatalf("handler must run exactly once, ran %d times", calls)
	}
	// The no-op repeat emits nothing; the user saw the outcome already.
	if emitter.count() != 1 {
		t.Errorf("expected 1 notification, got %d", emitter.count())
	}
}

func TestDispatch_UnknownType(t *testing.T) {
	d := New(NewRegistry(), nil, nil)
	action := newAction(domain.ActionSocialPost, domain.SocialPostPayload{Content: "hi"})

	outcome := d.Dispatch(context.Background(), action)
	if outcome.OK {
		t.Fatal("dispatch with no handler must fail")
	}
	if outcome.Reason != ReasonUnknownType {
		t.Errorf("expected reason %q, got %q", ReasonUnknownType, outcome.Reason)
	}
	if action.Executed() {
		t.Error("failed dispatch must not mark the action executed")
	}
}

func TestDispatch_NilAction(t *testing.T) {
	d := New(NewRegistry(), nil, nil)
	if outcome := d.Dispatch(context.Background(), nil); outcome.OK {
		t.Fatal("nil action must fail")
	}
}

func TestDispatch_HandlerErrorIsRetryable(t *testing.T) {
	reg := NewRegistry()
	var fail atomic.Bool
	fail.Store(true)
	var calls int32
	reg.Register(domain.ActionBudgetCreate, HandlerFunc(func(context.Context, domain.Payload) (string, error) {
		atomic.AddInt32(&calls, 1)
		if fail.Load() {
			return "", errors.New("ledger unavailable")
		}
		return "Budget created", nil
	}))

	emitter := &collectEmitter{}
	d := New(reg, emitter, nil)
	action := newAction(domain.ActionBudgetCreate, domain.BudgetCreatePayload{Category: "general", Amount: 500, Period: "monthly"})

	outcome := d.Dispatch(context.Background(), action)
	if outcome.OK {
		t.Fatal("expected failure while the handler errors")
	}
	if outcome.Reason != ReasonHandlerError {
		t.Errorf("expected reason %q, got %q", ReasonHandlerError, outcome.Reason)
	}
	if action.Executed() {
		t.Fatal("failed action must stay retryable")
	}
	if n := emitter.notifications[0]; n.Severity != SeverityError {
		t.Errorf("failure must notify with error severity, got %+v", n)
	}

	fail.Store(false)
	retry := d.Dispatch(context.Background(), action)
	if !retry.OK {
		t.Fatalf("retry should succeed, got %+v", retry)
	}
	if !action.Executed() {
		t.Error("retried action must end executed")
	}
	if calls != 2 {
		t.Errorf("expected 2 handler calls, got %d", calls)
	}
}

func TestDispatch_HandlerPanicContained(t *testing.T) {
	reg := NewRegistry()
	reg.Register(domain.ActionTripPlan, HandlerFunc(func(context.Context, domain.Payload) (string, error) {
		panic("itinerary service down")
	}))

	d := New(reg, nil, nil)
	action := newAction(domain.ActionTripPlan, domain.TripPlanPayload{Destination: "Lisbon", Days: 5})

	outcome := d.Dispatch(context.Background(), action)
	if outcome.OK {
		t.Fatal("panicking handler must yield a failure, not a crash")
	}
	if outcome.Reason != ReasonHandlerError {
		t.Errorf("expected reason %q, got %q", ReasonHandlerError, outcome.Reason)
	}
	if action.Executed() {
		t.Error("panicked action must stay retryable")
	}
}

func TestDispatch_ConcurrentSameAction(t *testing.T) {
	reg := NewRegistry()
	var calls int32
	gate := make(chan struct{})
	reg.Register(domain.ActionMessage, HandlerFunc(func(context.Context, domain.Payload) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return "Message sent", nil
	}))

	d := New(reg, nil, nil)
	action := newAction(domain.ActionMessage, domain.MessagePayload{RecipientID: "u1", RecipientName: "Sarah", Body: "hi"})

	const workers = 8
	var wg sync.WaitGroup
	outcomes := make([]Outcome, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = d.Dispatch(context.Background(), action)
		}(i)
	}

	// Let the racers hit the guard while the first holds the handler.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected a single net execution, got %d", calls)
	}
	for i, o := range outcomes {
		if !o.OK {
			t.Errorf("outcome %d failed: %+v", i, o)
		}
	}
	if !action.Executed() {
		t.Error("action must end executed")
	}
}

func TestRegistry_ListAndCounts(t *testing.T) {
	reg := NewRegistry()
	ok := HandlerFunc(func(context.Context, domain.Payload) (string, error) { return "", nil })
	reg.Register(domain.ActionBudgetCreate, ok)
	reg.Register(domain.ActionMessage, ok)

	d := New(reg, nil, nil)
	d.Dispatch(context.Background(), newAction(domain.ActionBudgetCreate, domain.BudgetCreatePayload{Category: "dining", Amount: 200, Period: "monthly"}))

	infos := reg.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(infos))
	}
	// Declaration order: message before budget_create.
	if infos[0].Type != domain.ActionMessage || infos[1].Type != domain.ActionBudgetCreate {
		t.Errorf("unexpected order: %s, %s", infos[0].Type, infos[1].Type)
	}
	if infos[1].ExecuteCount != 1 {
		t.Errorf("expected budget execute count 1, got %d", infos[1].ExecuteCount)
	}
	if infos[0].ExecuteCount != 0 {
		t.Errorf("expected message execute count 0, got %d", infos[0].ExecuteCount)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("bogus", HandlerFunc(func(context.Context, domain.Payload) (string, error) { return "", nil })); err == nil {
		t.Error("unknown action type must be rejected")
	}
	if err := reg.Register(domain.ActionMessage, nil); err == nil {
		t.Error("nil handler must be rejected")
	}
}
