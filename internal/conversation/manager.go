// Package conversation owns the per-module conversation logs. Exactly one
// conversation exists per module; messages are append-only and never
// reordered or truncated. The manager is the only writer of conversation
// state - the presentation layer reads through the accessors and mutates
// through StartOrAppend / CompleteTurn only.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifehub/internal/clock"
	"lifehub/internal/domain"
	"lifehub/internal/intent"
	"lifehub/internal/logging"
	"lifehub/internal/state"
)

// ErrTurnInFlight is returned by TryCompleteTurn when an assistant turn for
// the same module has not resolved yet. The caller retries after it does.
var ErrTurnInFlight = errors.New("assistant turn already in flight for module")

// ErrNoConversation is returned when a turn is requested for a module with
// no conversation yet.
var ErrNoConversation = errors.New("no conversation for module")

// stateKeyPrefix namespaces conversation entries in the state container.
const stateKeyPrefix = "conversation/"

// Manager creates and appends to conversations and runs assistant turns.
type Manager struct {
	mu            sync.Mutex
	conversations map[domain.ModuleTag]*domain.Conversation
	inflight      map[domain.ModuleTag]bool
	waiters       map[domain.ModuleTag][]chan struct{}

	classifier *intent.Classifier
	clk        clock.Clock
	latency    time.Duration
	container  state.Container
}

// New builds a manager. The latency models "the assistant is thinking"; it
// is waited on the injected clock so tests can advance virtual time. The
// state container, when non-nil, receives a copy of each conversation after
// every mutation under "conversation/<module>".
func New(classifier *intent.Classifier, clk clock.Clock, latency time.Duration, container state.Container) *Manager {
	return &Manager{
		conversations: make(map[domain.ModuleTag]*domain.Conversation),
		inflight:      make(map[domain.ModuleTag]bool),
		waiters:       make(map[domain.ModuleTag][]chan struct{}),
		classifier:    classifier,
		clk:           clk,
		latency:       latency,
		container:     container,
	}
}

// StartOrAppend records a user message for the module, creating the
// conversation on first use. Synchronous; always succeeds.
func (m *Manager) StartOrAppend(module domain.ModuleTag, text string) *domain.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	conv, ok := m.conversations[module]
	if !ok {
		conv = &domain.Conversation{
			ID:        uuid.New(),
			Module:    module,
			CreatedAt: now,
		}
		m.conversations[module] = conv
		logging.Turn("conversation started module=%s id=%s", module, conv.ID)
	}

	conv.Messages = append(conv.Messages, domain.Message{
		ID:        uuid.New(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: now,
	})
	logging.TurnDebug("user message appended module=%s count=%d", module, len(conv.Messages))
	m.publishLocked(conv)
	return conv
}

// Get returns the conversation for a module, or nil if none exists.
func (m *Manager) Get(module domain.ModuleTag) *domain.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversations[module]
}

// Modules returns the modules with an active conversation.
func (m *Manager) Modules() []domain.ModuleTag {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ModuleTag, 0, len(m.conversations))
	for _, tag := range domain.Modules() {
		if _, ok := m.conversations[tag]; ok {
			out = append(out, tag)
		}
	}
	return out
}

// CompleteTurn runs one assistant turn for the module: it waits the
// configured latency, classifies the most recent user message, materializes
// the returned templates into Actions, and appends one assistant message.
//
// Turns for the same module are serialized in FIFO arrival order - a second
// call queues behind the first and their appended messages never interleave.
// Cancelling ctx during the latency window aborts the turn: the assistant
// message is simply never appended.
func (m *Manager) CompleteTurn(ctx context.Context, module domain.ModuleTag) (*domain.Message, error) {
	if err := m.acquire(ctx, module); err != nil {
		return nil, err
	}
	defer m.release(module)
	return m.runTurn(ctx, module)
}

// TryCompleteTurn is the rejecting variant: it fails fast with
// ErrTurnInFlight instead of queueing when a turn is already running.
func (m *Manager) TryCompleteTurn(ctx context.Context, module domain.ModuleTag) (*domain.Message, error) {
	m.mu.Lock()
	if m.inflight[module] {
		m.mu.Unlock()
		logging.TurnDebug("turn rejected (in flight) module=%s", module)
		return nil, ErrTurnInFlight
	}
	m.inflight[module] = true
	m.mu.Unlock()

	defer m.release(module)
	return m.runTurn(ctx, module)
}

// acquire takes the per-module turn slot, queueing FIFO behind any holder.
func (m *Manager) acquire(ctx context.Context, module domain.ModuleTag) error {
	m.mu.Lock()
	if !m.inflight[module] {
		m.inflight[module] = true
		m.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	m.waiters[module] = append(m.waiters[module], ready)
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		// Remove ourselves from the queue; the slot may have been handed to
		// us in the meantime, in which case pass it on.
		m.mu.Lock()
		for i, ch := range m.waiters[module] {
			if ch == ready {
				m.waiters[module] = append(m.waiters[module][:i], m.waiters[module][i+1:]...)
				m.mu.Unlock()
				return ctx.Err()
			}
		}
		m.mu.Unlock()
		select {
		case <-ready:
			m.release(module)
		default:
		}
		return ctx.Err()
	}
}

// release hands the turn slot to the next FIFO waiter, or clears it.
func (m *Manager) release(module domain.ModuleTag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q := m.waiters[module]; len(q) > 0 {
		next := q[0]
		m.waiters[module] = q[1:]
		close(next)
		return
	}
	m.inflight[module] = false
}

// runTurn executes the turn body. Caller holds the module slot.
func (m *Manager) runTurn(ctx context.Context, module domain.ModuleTag) (*domain.Message, error) {
	m.mu.Lock()
	conv, ok := m.conversations[module]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNoConversation
	}
	last := conv.LastUserMessage()
	m.mu.Unlock()
	if last == nil {
		return nil, ErrNoConversation
	}
	userText := last.Content

	// Simulated thinking latency, cancellable. No state has been touched
	// yet, so a cancelled turn leaves nothing partial behind.
	if m.latency > 0 {
		select {
		case <-m.clk.After(m.latency):
		case <-ctx.Done():
			logging.TurnDebug("turn cancelled module=%s", module)
			return nil, ctx.Err()
		}
	}

	result := m.classifier.Classify(userText, module)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clk.Now()
	actions := make([]*domain.Action, 0, len(result.Templates))
	for _, tpl := range result.Templates {
		actions = append(actions, tpl.Materialize(now))
	}
	msg := domain.Message{
		ID:        uuid.New(),
		Role:      domain.RoleAssistant,
		Content:   result.Response,
		Timestamp: now,
		Actions:   actions,
	}
	conv.Messages = append(conv.Messages, msg)
	logging.Turn("assistant turn complete module=%s actions=%d count=%d", module, len(actions), len(conv.Messages))
	m.publishLocked(conv)
	appended := conv.Messages[len(conv.Messages)-1]
	return &appended, nil
}

// publishLocked mirrors the conversation into the state container. Caller
// holds m.mu. A shallow snapshot is published so subscribers cannot mutate
// the manager-owned message slice.
func (m *Manager) publishLocked(conv *domain.Conversation) {
	if m.container == nil {
		return
	}
	snapshot := *conv
	snapshot.Messages = append([]domain.Message(nil), conv.Messages...)
	m.container.Set(stateKeyPrefix+string(conv.Module), &snapshot)
}
