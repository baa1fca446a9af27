// Package store persists the dispatch audit trail and conversation
// snapshots in SQLite. Actions are never deleted - the audit table is the
// durable record behind the engine's "retained for audit/idempotency"
// guarantee. The engine itself never reads this store on the hot path;
// durability is this layer's concern alone.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lifehub/internal/dispatch"
	"lifehub/internal/domain"
	"lifehub/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatch_audit (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id   TEXT NOT NULL,
	action_type TEXT NOT NULL,
	title       TEXT NOT NULL,
	payload     TEXT,
	ok          INTEGER NOT NULL,
	detail      TEXT,
	reason      TEXT,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dispatch_audit_action ON dispatch_audit(action_id);

CREATE TABLE IF NOT EXISTS conversation_snapshots (
	module          TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	message_count   INTEGER NOT NULL,
	snapshot        TEXT NOT NULL,
	saved_at        TEXT NOT NULL
);
`

// Store is the SQLite-backed audit log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. ":memory:" works for
// tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	// Single writer keeps the audit inserts ordered and sidesteps
	// SQLITE_BUSY under concurrent dispatches.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("pragma failed (%s): %v", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	logging.Store("audit store opened at %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// DISPATCH AUDIT
// =============================================================================

// AuditEntry is one recorded dispatch attempt.
type AuditEntry struct {
	ActionID   string    `json:"action_id"`
	ActionType string    `json:"action_type"`
	Title      string    `json:"title"`
	Payload    string    `json:"payload"`
	OK         bool      `json:"ok"`
	Detail     string    `json:"detail"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RecordDispatch implements dispatch.AuditLog.
func (s *Store) RecordDispatch(ctx context.Context, action *domain.Action, outcome dispatch.Outcome) error {
	payload, err := json.Marshal(action.Payload)
	if err != nil {
		payload = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dispatch_audit (action_id, action_type, title, payload, ok, detail, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		action.ID.String(), string(action.Type), action.Title, string(payload),
		boolToInt(outcome.OK), outcome.Detail, outcome.Reason,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	logging.StoreDebug("dispatch recorded action=%s ok=%v", action.ID, outcome.OK)
	return nil
}

// Dispatches returns audit entries, newest first. actionID narrows to one
// action when non-empty; limit caps the result when positive.
func (s *Store) Dispatches(ctx context.Context, actionID string, limit int) ([]AuditEntry, error) {
	query := `SELECT action_id, action_type, title, payload, ok, detail, reason, recorded_at
		FROM dispatch_audit`
	var args []interface{}
	if actionID != "" {
		query += " WHERE action_id = ?"
		args = append(args, actionID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var ok int
		var recorded string
		if err := rows.Scan(&e.ActionID, &e.ActionType, &e.Title, &e.Payload, &ok, &e.Detail, &e.Reason, &recorded); err != nil {
			return nil, fmt.Errorf("scan dispatch row: %w", err)
		}
		e.OK = ok != 0
		if t, perr := time.Parse(time.RFC3339Nano, recorded); perr == nil {
			e.RecordedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// CONVERSATION SNAPSHOTS
// =============================================================================

// SaveConversation upserts a JSON snapshot of the conversation. Called on
// engine teardown so a later session can show prior history.
func (s *Store) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	blob, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_snapshots (module, conversation_id, message_count, snapshot, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(module) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			message_count   = excluded.message_count,
			snapshot        = excluded.snapshot,
			saved_at        = excluded.saved_at`,
		string(conv.Module), conv.ID.String(), len(conv.Messages), string(blob),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save conversation snapshot: %w", err)
	}
	logging.StoreDebug("conversation snapshot saved module=%s messages=%d", conv.Module, len(conv.Messages))
	return nil
}

// SnapshotCount returns how many modules have a saved snapshot.
func (s *Store) SnapshotCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_snapshots`).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
