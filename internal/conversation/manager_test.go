package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"lifehub/internal/clock"
	"lifehub/internal/directory"
	"lifehub/internal/domain"
	"lifehub/internal/intent"
	"lifehub/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestManager(latency time.Duration) (*Manager, *clock.Fake) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	classifier := intent.New(
		directory.NewUsers(directory.User{ID: "u1", Name: "Sarah", Handle: "sarah"}),
		nil,
	)
	return New(classifier, clk, latency, nil), clk
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartOrAppend_OneConversationPerModule(t *testing.T) {
	m, _ := newTestManager(0)

	c1 := m.StartOrAppend(domain.ModuleFinance, "hello")
	c2 := m.StartOrAppend(domain.ModuleFinance, "again")
	if c1.ID != c2.ID {
		t.Fatal("expected the same conversation on second append")
	}
	if len(c2.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c2.Messages))
	}

	c3 := m.StartOrAppend(domain.ModuleTravel, "other module")
	if c3.ID == c1.ID {
		t.Fatal("modules must not share a conversation")
	}
	if got := len(m.Modules()); got != 2 {
		t.Fatalf("expected 2 active modules, got %d", got)
	}
}

func TestConversation_AppendOnly(t *testing.T) {
	m, _ := newTestManager(0)
	ctx := context.Background()

	m.StartOrAppend(domain.ModuleFinance, "create budget")
	before := append([]domain.Message(nil), m.Get(domain.ModuleFinance).Messages...)

	if _, err := m.CompleteTurn(ctx, domain.ModuleFinance); err != nil {
		t.Fatalf("CompleteTurn failed: %v", err)
	}

	after := m.Get(domain.ModuleFinance).Messages
	if len(after) != len(before)+1 {
		t.Fatalf("expected exactly one appended message, got %d -> %d", len(before), len(after))
	}
	if diff := cmp.Diff(before, after[:len(before)], cmpopts.IgnoreUnexported(domain.Action{})); diff != "" {
		t.Errorf("prior messages changed on append (-before +after):\n%s", diff)
	}
}

func TestCompleteTurn_AppendsAssistantMessageWithActions(t *testing.T) {
	m, _ := newTestManager(0)
	ctx := context.Background()

	m.StartOrAppend(domain.ModuleFinance, "create a 750 dollar budget")
	msg, err := m.CompleteTurn(ctx, domain.ModuleFinance)
	if err != nil {
		t.Fatalf("CompleteTurn failed: %v", err)
	}
	if msg.Role != domain.RoleAssistant {
		t.Fatalf("expected assistant message, got %s", msg.Role)
	}
	if len(msg.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(msg.Actions))
	}
	action := msg.Actions[0]
	if action.Type != domain.ActionBudgetCreate {
		t.Errorf("expected budget_create action, got %s", action.Type)
	}
	if action.Executed() {
		t.Error("fresh actions must not be executed")
	}
	payload := action.Payload.(domain.BudgetCreatePayload)
	if payload.Amount != 750 {
		t.Errorf("extracted amount must flow into the payload, got %v", payload.Amount)
	}
}

func TestCompleteTurn_NoConversation(t *testing.T) {
	m, _ := newTestManager(0)
	if _, err := m.CompleteTurn(context.Background(), domain.ModuleSocial); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected ErrNoConversation, got %v", err)
	}
}

func TestTryCompleteTurn_RejectsWhileInFlight(t *testing.T) {
	m, clk := newTestManager(500 * time.Millisecond)
	ctx := context.Background()

	m.StartOrAppend(domain.ModuleChat, "hello")

	done := make(chan error, 1)
	go func() {
		_, err := m.CompleteTurn(ctx, domain.ModuleChat)
		done <- err
	}()
	waitFor(t, func() bool { return clk.Pending() == 1 }, "first turn to reach its latency window")

	if _, err := m.TryCompleteTurn(ctx, domain.ModuleChat); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}

	clk.Advance(time.Second)
	if err := <-done; err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if got := len(m.Get(domain.ModuleChat).Messages); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
}

func TestCompleteTurn_QueuedTurnsNeverInterleave(t *testing.T) {
	m, clk := newTestManager(500 * time.Millisecond)
	ctx := context.Background()

	m.StartOrAppend(domain.ModuleChat, "hello")
	m.StartOrAppend(domain.ModuleChat, "hello again")

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.CompleteTurn(ctx, domain.ModuleChat)
		firstDone <- err
	}()
	waitFor(t, func() bool { return clk.Pending() == 1 }, "first turn latency")

	secondDone := make(chan error, 1)
	go func() {
		_, err := m.CompleteTurn(ctx, domain.ModuleChat)
		secondDone <- err
	}()

	// The second turn is queued: it must not enter its latency window until
	// the first turn's assistant message has been appended.
	time.Sleep(10 * time.Millisecond)
	if clk.Pending() != 1 {
		t.Fatalf("second turn started before first resolved (pending=%d)", clk.Pending())
	}

	clk.Advance(time.Second)
	if err := <-firstDone; err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	waitFor(t, func() bool { return clk.Pending() == 1 }, "second turn latency")
	clk.Advance(time.Second)
	if err := <-secondDone; err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	msgs := m.Get(domain.ModuleChat).Messages
	wantRoles := []domain.Role{domain.RoleUser, domain.RoleUser, domain.RoleAssistant, domain.RoleAssistant}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(msgs))
	}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Errorf("message %d: expected role %s, got %s", i, want, msgs[i].Role)
		}
	}
}

func TestCompleteTurn_CancelledDuringLatency(t *testing.T) {
	m, clk := newTestManager(500 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	m.StartOrAppend(domain.ModuleTravel, "plan a trip to Lisbon")

	done := make(chan error, 1)
	go func() {
		_, err := m.CompleteTurn(ctx, domain.ModuleTravel)
		done <- err
	}()
	waitFor(t, func() bool { return clk.Pending() == 1 }, "turn latency")

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// No partial state: the assistant message was never appended.
	if got := len(m.Get(domain.ModuleTravel).Messages); got != 1 {
		t.Fatalf("expected 1 message after cancelled turn, got %d", got)
	}

	// The module slot is free again: a fresh turn completes normally.
	done2 := make(chan error, 1)
	go func() {
		_, err := m.CompleteTurn(context.Background(), domain.ModuleTravel)
		done2 <- err
	}()
	waitFor(t, func() bool { return clk.Pending() == 2 }, "retry latency")
	clk.Advance(time.Second)
	if err := <-done2; err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := len(m.Get(domain.ModuleTravel).Messages); got != 2 {
		t.Fatalf("expected 2 messages after retry, got %d", got)
	}
}

func TestStartOrAppend_PublishesSnapshot(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	classifier := intent.New(directory.NewUsers(), nil)
	container := state.NewMemory()
	m := New(classifier, clk, 0, container)

	var notified int
	unsub := container.Subscribe("conversation/finance", func(interface{}) { notified++ })
	defer unsub()

	m.StartOrAppend(domain.ModuleFinance, "hello")
	if notified != 1 {
		t.Fatalf("expected 1 notification, got %d", notified)
	}

	v, ok := container.Get("conversation/finance")
	if !ok {
		t.Fatal("conversation snapshot missing from container")
	}
	snap := v.(*domain.Conversation)
	if len(snap.Messages) != 1 {
		t.Fatalf("snapshot should carry 1 message, got %d", len(snap.Messages))
	}

	// The snapshot is detached: mutating it must not touch the manager's copy.
	snap.Messages[0].Content = "tampered"
	if m.Get(domain.ModuleFinance).Messages[0].Content != "hello" {
		t.Error("snapshot mutation leaked into manager state")
	}
}
