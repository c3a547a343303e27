// Package sqlite persists conversation sessions in a SQLite database using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/randalmurphal/promptchain/memory"
	"github.com/randalmurphal/promptchain/provider"
)

// Store is a SQLite implementation of memory.Store.
type Store struct {
	db *sql.DB
}

var _ memory.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT,
			tool_call_id TEXT,
			is_error INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Load implements memory.Store.
func (s *Store) Load(ctx context.Context, session string) ([]provider.Message, error) {
	query := `SELECT role, content, tool_calls, tool_call_id, is_error
	          FROM messages WHERE session_id = ?
	          ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []provider.Message
	for rows.Next() {
		var (
			msg        provider.Message
			role       string
			toolCalls  sql.NullString
			toolCallID sql.NullString
			isError    bool
		)
		if err := rows.Scan(&role, &msg.Content, &toolCalls, &toolCallID, &isError); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = provider.Role(role)
		msg.ToolCallID = toolCallID.String
		msg.IsError = isError
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Append implements memory.Store.
func (s *Store) Append(ctx context.Context, session string, msgs ...provider.Message) error {
	if session == "" {
		return fmt.Errorf("empty session id")
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET updated_at=excluded.updated_at`, session, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	query := `INSERT INTO messages (session_id, role, content, tool_calls, tool_call_id, is_error, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, m := range msgs {
		var toolCalls sql.NullString
		if len(m.ToolCalls) > 0 {
			data, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return fmt.Errorf("failed to marshal tool calls: %w", err)
			}
			toolCalls = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			session, string(m.Role), m.Content, toolCalls, m.ToolCallID, m.IsError, now); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return tx.Commit()
}

// Sessions implements memory.Store.
func (s *Store) Sessions(ctx context.Context) ([]memory.Session, error) {
	query := `SELECT s.id, s.created_at, s.updated_at, COUNT(m.id)
	          FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
	          GROUP BY s.id
	          ORDER BY s.updated_at DESC, s.id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []memory.Session
	for rows.Next() {
		var sess memory.Session
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt, &sess.Messages); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Delete implements memory.Store.
func (s *Store) Delete(ctx context.Context, session string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, session); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, session)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", memory.ErrSessionNotFound, session)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
