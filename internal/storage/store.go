// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package storage provides durable conversation persistence.
package storage

import (
	"context"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/model"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists comparisons. Two interchangeable backends exist: the local
// on-device SQLite store and the remote API store. The core never cares
// which one it holds.
type Store interface {
	// Save persists a comparison and returns its ID.
	Save(ctx context.Context, c *model.Comparison) (string, error)

	// List returns summaries of all saved comparisons, most recent first.
	List(ctx context.Context) ([]model.ComparisonMeta, error)

	// Load retrieves a comparison by ID, reconstructing its round structure
	// from the persisted flat message list.
	Load(ctx context.Context, id string) (*model.Comparison, error)

	// Delete removes a comparison by ID.
	Delete(ctx context.Context, id string) error

	// Close releases any resources the store holds.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, storage.ErrNotFound) to check for it.
var ErrNotFound = &StoreError{Message: "conversation not found"}

// StoreError represents a storage-related error.
type StoreError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// STORED RECORD
// =============================================================================

// StoredMessage is the persisted form of one message: the flat record both
// backends read and write. Reconstruction of round structure happens on
// load, in the model package.
type StoredMessage struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Model        string    `json:"model,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Failed       bool      `json:"failed,omitempty"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
}

// StoredComparison is the persisted form of a whole comparison.
type StoredComparison struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Models    []string        `json:"models"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []StoredMessage `json:"messages"`
}

// toRecord flattens a comparison into its persisted form.
func toRecord(c *model.Comparison) *StoredComparison {
	rec := &StoredComparison{
		ID:        c.ID,
		Title:     c.GetTitle(),
		Models:    append([]string(nil), c.Models...),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, m := range c.Flatten() {
		rec.Messages = append(rec.Messages, StoredMessage{
			ID:           m.ID,
			Role:         m.Role.String(),
			Content:      m.Content,
			Model:        m.Model,
			Timestamp:    m.Timestamp,
			Failed:       m.Failed,
			InputTokens:  m.InputTokens,
			OutputTokens: m.OutputTokens,
		})
	}
	return rec
}

// fromRecord reconstructs a comparison from its persisted form.
func fromRecord(rec *StoredComparison) *model.Comparison {
	flat := make([]*model.Message, 0, len(rec.Messages))
	for _, sm := range rec.Messages {
		flat = append(flat, &model.Message{
			ID:           sm.ID,
			Role:         model.Role(sm.Role),
			Content:      sm.Content,
			Model:        sm.Model,
			Timestamp:    sm.Timestamp,
			Failed:       sm.Failed,
			InputTokens:  sm.InputTokens,
			OutputTokens: sm.OutputTokens,
		})
	}
	return model.RebuildComparison(rec.ID, rec.Title, rec.Models, flat)
}
