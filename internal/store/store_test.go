package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifehub/internal/dispatch"
	"lifehub/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lifehub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordDispatch_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	action := &domain.Action{
		ID:        uuid.New(),
		Type:      domain.ActionBudgetCreate,
		Title:     "Create budget",
		Payload:   domain.BudgetCreatePayload{Category: "dining", Amount: 200, Period: "monthly"},
		CreatedAt: time.Now(),
	}

	require.NoError(t, s.RecordDispatch(ctx, action, dispatch.Success("Budget created")))
	require.NoError(t, s.RecordDispatch(ctx, action, dispatch.Failure(dispatch.ReasonHandlerError)))

	entries, err := s.Dispatches(ctx, action.ID.String(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first: the failure was recorded last.
	assert.False(t, entries[0].OK)
	assert.Equal(t, dispatch.ReasonHandlerError, entries[0].Reason)
	assert.True(t, entries[1].OK)
	assert.Equal(t, "Budget created", entries[1].Detail)
	assert.Equal(t, string(domain.ActionBudgetCreate), entries[1].ActionType)
	assert.Contains(t, entries[1].Payload, `"dining"`)
	assert.WithinDuration(t, time.Now(), entries[1].RecordedAt, time.Minute)
}

func TestDispatches_FilterAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := &domain.Action{ID: uuid.New(), Type: domain.ActionReminder, Title: "Reminder", Payload: domain.ReminderPayload{Title: "one"}}
	b := &domain.Action{ID: uuid.New(), Type: domain.ActionReminder, Title: "Reminder", Payload: domain.ReminderPayload{Title: "two"}}
	require.NoError(t, s.RecordDispatch(ctx, a, dispatch.Success("Done")))
	require.NoError(t, s.RecordDispatch(ctx, b, dispatch.Success("Done")))
	require.NoError(t, s.RecordDispatch(ctx, b, dispatch.Success("Done")))

	all, err := s.Dispatches(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyB, err := s.Dispatches(ctx, b.ID.String(), 0)
	require.NoError(t, err)
	assert.Len(t, onlyB, 2)

	limited, err := s.Dispatches(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, b.ID.String(), limited[0].ActionID)
}

func TestSaveConversation_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv := &domain.Conversation{
		ID:        uuid.New(),
		Module:    domain.ModuleFinance,
		CreatedAt: time.Now(),
		Messages: []domain.Message{
			{ID: uuid.New(), Role: domain.RoleUser, Content: "create budget", Timestamp: time.Now()},
		},
	}
	require.NoError(t, s.SaveConversation(ctx, conv))

	conv.Messages = append(conv.Messages, domain.Message{
		ID: uuid.New(), Role: domain.RoleAssistant, Content: "done", Timestamp: time.Now(),
	})
	require.NoError(t, s.SaveConversation(ctx, conv))

	// One row per module, carrying the latest snapshot.
	n, err := s.SnapshotCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	other := &domain.Conversation{ID: uuid.New(), Module: domain.ModuleTravel, CreatedAt: time.Now()}
	require.NoError(t, s.SaveConversation(ctx, other))

	n, err = s.SnapshotCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	n, err := s.SnapshotCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
