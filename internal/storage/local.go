// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package storage provides durable conversation persistence.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SCHEMA
// =============================================================================

const localSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	models     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	model           TEXT NOT NULL DEFAULT '',
	failed          INTEGER NOT NULL DEFAULT 0,
	input_tokens    INTEGER NOT NULL DEFAULT 0,
	output_tokens   INTEGER NOT NULL DEFAULT 0,
	timestamp       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
`

// =============================================================================
// LOCAL STORE
// =============================================================================

// LocalStore is the on-device Store backend, a single SQLite database under
// the user's data directory. Conversations saved here never leave the
// machine.
type LocalStore struct {
	db *sql.DB

	// MaxConversations limits stored conversations (0 = unlimited).
	// When exceeded, the oldest are pruned on save.
	MaxConversations int
}

// NewLocalStore opens (or creates) the default on-device database at
// ~/.compareintel/conversations.db.
func NewLocalStore() (*LocalStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewLocalStoreAt(filepath.Join(homeDir, ".compareintel", "conversations.db"))
}

// NewLocalStoreAt opens (or creates) a database at a custom path.
func NewLocalStoreAt(path string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StoreError{Message: "failed to create data directory", Cause: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Message: "failed to open database", Cause: err}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, &StoreError{Message: "failed to configure database", Cause: err}
	}
	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, &StoreError{Message: "failed to initialize schema", Cause: err}
	}

	return &LocalStore{db: db, MaxConversations: 200}, nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists a comparison and returns its ID. An existing conversation
// with the same ID is replaced wholesale: the flat message list is the unit
// of persistence, not individual rows.
func (s *LocalStore) Save(ctx context.Context, c *model.Comparison) (string, error) {
	rec := toRecord(c)
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	modelsJSON, err := json.Marshal(rec.Models)
	if err != nil {
		return "", &StoreError{Message: "failed to encode models", Cause: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &StoreError{Message: "failed to begin transaction", Cause: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, title, models, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			models = excluded.models,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Title, string(modelsJSON), rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli())
	if err != nil {
		return "", &StoreError{Message: "failed to save conversation", Cause: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, rec.ID); err != nil {
		return "", &StoreError{Message: "failed to replace messages", Cause: err}
	}

	for i, m := range rec.Messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, conversation_id, seq, role, content, model, failed, input_tokens, output_tokens, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, rec.ID, i, m.Role, m.Content, m.Model, boolToInt(m.Failed),
			m.InputTokens, m.OutputTokens, m.Timestamp.UnixMilli())
		if err != nil {
			return "", &StoreError{Message: "failed to save message", Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", &StoreError{Message: "failed to commit", Cause: err}
	}

	if s.MaxConversations > 0 {
		s.enforceLimit(ctx)
	}

	return rec.ID, nil
}

// enforceLimit prunes the oldest conversations when over the cap.
func (s *LocalStore) enforceLimit(ctx context.Context) {
	// Best effort; a failed prune never fails the save.
	s.db.ExecContext(ctx, `
		DELETE FROM conversations WHERE id IN (
			SELECT id FROM conversations
			ORDER BY updated_at DESC
			LIMIT -1 OFFSET ?
		)`, s.MaxConversations)
}

// =============================================================================
// LOAD / LIST / DELETE
// =============================================================================

// Load retrieves a comparison by ID.
func (s *LocalStore) Load(ctx context.Context, id string) (*model.Comparison, error) {
	rec := &StoredComparison{ID: id}

	var modelsJSON string
	var createdMs, updatedMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT title, models, created_at, updated_at FROM conversations WHERE id = ?`, id).
		Scan(&rec.Title, &modelsJSON, &createdMs, &updatedMs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Message: "failed to load conversation", Cause: err}
	}
	rec.CreatedAt = time.UnixMilli(createdMs)
	rec.UpdatedAt = time.UnixMilli(updatedMs)
	if err := json.Unmarshal([]byte(modelsJSON), &rec.Models); err != nil {
		return nil, &StoreError{Message: "corrupt models column", Cause: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, model, failed, input_tokens, output_tokens, timestamp
		FROM messages WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, &StoreError{Message: "failed to load messages", Cause: err}
	}
	defer rows.Close()

	for rows.Next() {
		var m StoredMessage
		var failed int
		var ts int64
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Model, &failed,
			&m.InputTokens, &m.OutputTokens, &ts); err != nil {
			return nil, &StoreError{Message: "failed to scan message", Cause: err}
		}
		m.Failed = failed != 0
		m.Timestamp = time.UnixMilli(ts)
		rec.Messages = append(rec.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Message: "failed to read messages", Cause: err}
	}

	return fromRecord(rec), nil
}

// List returns all saved comparisons, most recent first.
func (s *LocalStore) List(ctx context.Context) ([]model.ComparisonMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.models, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.role = 'user'),
		       COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id AND m.role = 'user' ORDER BY m.seq LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, &StoreError{Message: "failed to list conversations", Cause: err}
	}
	defer rows.Close()

	var metas []model.ComparisonMeta
	for rows.Next() {
		var meta model.ComparisonMeta
		var modelsJSON, preview string
		var createdMs, updatedMs int64
		if err := rows.Scan(&meta.ID, &meta.Title, &modelsJSON, &createdMs, &updatedMs,
			&meta.RoundCount, &preview); err != nil {
			return nil, &StoreError{Message: "failed to scan conversation", Cause: err}
		}
		if err := json.Unmarshal([]byte(modelsJSON), &meta.Models); err != nil {
			continue // Skip corrupted rows
		}
		meta.CreatedAt = time.UnixMilli(createdMs)
		meta.UpdatedAt = time.UnixMilli(updatedMs)
		meta.Preview = truncateRunes(strings.ReplaceAll(preview, "\n", " "), 80)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Delete removes a comparison by ID.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return &StoreError{Message: "failed to delete conversation", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// SEARCH
// =============================================================================

// Search finds conversations whose title or message content contains the
// query string (case-insensitive).
func (s *LocalStore) Search(ctx context.Context, query string) ([]model.ComparisonMeta, error) {
	if query == "" {
		return s.List(ctx)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []model.ComparisonMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
			continue
		}
		var n int
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM messages
			WHERE conversation_id = ? AND content LIKE '%' || ? || '%'`,
			meta.ID, query).Scan(&n)
		if err == nil && n > 0 {
			results = append(results, meta)
		}
	}
	return results, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// truncateRunes truncates to maxLen runes, adding "..." if truncated.
func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
