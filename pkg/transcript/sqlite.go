// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/VladRad03/Adulter/pkg/core"
	"github.com/VladRad03/Adulter/pkg/orchestrator"
)

// SQLiteStore persists transcripts in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the transcript database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript db: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore creates a SQLite-backed store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureTranscriptSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func ensureTranscriptSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			outcome TEXT NOT NULL,
			result TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			seq INTEGER NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_messages_conversation
			ON conversation_messages(conversation_id, seq)`,
		`CREATE TABLE IF NOT EXISTS conversation_tool_calls (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL REFERENCES conversation_messages(id),
			role TEXT NOT NULL,
			tool TEXT NOT NULL,
			args_json TEXT NOT NULL,
			status TEXT NOT NULL,
			result TEXT NOT NULL,
			error_text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure transcript schema: %w", err)
		}
	}
	return nil
}

// Record implements orchestrator.Recorder. The conversation and its
// messages are written in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, result *orchestrator.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO conversations (id, outcome, result, rounds, finished_at)
		VALUES (?, ?, ?, ?, ?)
	`, result.ConversationID, string(result.Outcome), result.Text, result.Rounds, time.Now().UTC())
	if err != nil {
		return err
	}
	for seq, m := range result.Messages {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO conversation_messages (id, conversation_id, seq, author, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, m.ID, result.ConversationID, seq, m.Author, m.Content, m.CreatedAt)
		if err != nil {
			return err
		}
		for _, tc := range m.ToolCalls {
			argsJSON, err := json.Marshal(tc.Args)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO conversation_tool_calls
					(id, message_id, role, tool, args_json, status, result, error_text, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, tc.ID, m.ID, tc.Role, tc.Tool, string(argsJSON), string(tc.Status), tc.Result, tc.Error, tc.CreatedAt)
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Get returns the transcript for a conversation id, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, conversationID string) (*orchestrator.Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, outcome, result, rounds FROM conversations WHERE id = ?
	`, conversationID)

	var result orchestrator.Result
	var outcome string
	if err := row.Scan(&result.ConversationID, &outcome, &result.Text, &result.Rounds); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	result.Outcome = orchestrator.Outcome(outcome)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, content, created_at FROM conversation_messages
		WHERE conversation_id = ? ORDER BY seq ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m core.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	calls, err := s.toolCalls(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for idx := range result.Messages {
		result.Messages[idx].ToolCalls = calls[result.Messages[idx].ID]
	}
	return &result, nil
}

func (s *SQLiteStore) toolCalls(ctx context.Context, conversationID string) (map[string][]core.ToolCall, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tc.id, tc.message_id, tc.role, tc.tool, tc.args_json, tc.status, tc.result, tc.error_text, tc.created_at
		FROM conversation_tool_calls tc
		JOIN conversation_messages m ON m.id = tc.message_id
		WHERE m.conversation_id = ?
		ORDER BY m.seq ASC, tc.created_at ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]core.ToolCall)
	for rows.Next() {
		var tc core.ToolCall
		var messageID, argsJSON, status string
		if err := rows.Scan(&tc.ID, &messageID, &tc.Role, &tc.Tool, &argsJSON, &status, &tc.Result, &tc.Error, &tc.CreatedAt); err != nil {
			return nil, err
		}
		if argsJSON != "" && argsJSON != "null" {
			if err := json.Unmarshal([]byte(argsJSON), &tc.Args); err != nil {
				return nil, err
			}
		}
		tc.Status = core.ToolCallStatus(status)
		out[messageID] = append(out[messageID], tc)
	}
	return out, rows.Err()
}

// List returns the most recently finished conversations, newest first.
// Messages are not loaded; use Get for the full transcript.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]orchestrator.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outcome, result, rounds FROM conversations
		ORDER BY finished_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orchestrator.Result
	for rows.Next() {
		var result orchestrator.Result
		var outcome string
		if err := rows.Scan(&result.ConversationID, &outcome, &result.Text, &result.Rounds); err != nil {
			return nil, err
		}
		result.Outcome = orchestrator.Outcome(outcome)
		out = append(out, result)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
