// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package model contains the data structures for multi-model conversations.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROUND TYPE
// =============================================================================

// Round groups one user turn with each participating model's corresponding
// assistant turn. A model absent from a round simply has no entry there; the
// gap is preserved, never filled with a fabricated message.
type Round struct {
	// User is the prompt that opened the round.
	User *Message

	// Assistants holds zero or one assistant message per model.
	Assistants map[string]*Message
}

// NewRound creates a round for the given user message.
func NewRound(user *Message) *Round {
	return &Round{
		User:       user,
		Assistants: make(map[string]*Message),
	}
}

// Assistant returns the round's assistant message for a model, or nil.
func (r *Round) Assistant(model string) *Message {
	return r.Assistants[model]
}

// =============================================================================
// COMPARISON TYPE
// =============================================================================

// Comparison is a round-structured, multi-model conversation: the durable
// result of one or more compare submissions against the same set of models.
//
// Invariant: the k-th round's user message and each model's k-th assistant
// message belong together. Per-model message sequences are synthesized from
// the rounds, so the invariant holds by construction.
type Comparison struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Models participating, in selection order.
	Models []string `json:"models"`

	// Rounds in chronological order.
	Rounds []*Round `json:"-"`
}

// NewComparison creates an empty comparison over the given models.
func NewComparison(models []string) *Comparison {
	now := time.Now()
	return &Comparison{
		ID:        generateComparisonID(),
		CreatedAt: now,
		UpdatedAt: now,
		Models:    append([]string(nil), models...),
	}
}

// RoundCount returns the number of rounds.
func (c *Comparison) RoundCount() int {
	return len(c.Rounds)
}

// IsEmpty returns true if there are no rounds.
func (c *Comparison) IsEmpty() bool {
	return len(c.Rounds) == 0
}

// LastRound returns the most recent round, or nil.
func (c *Comparison) LastRound() *Round {
	if len(c.Rounds) == 0 {
		return nil
	}
	return c.Rounds[len(c.Rounds)-1]
}

// HasModel reports whether the model participates in this comparison.
func (c *Comparison) HasModel(model string) bool {
	for _, m := range c.Models {
		if m == model {
			return true
		}
	}
	return false
}

// Title management: the title defaults to a preview of the first prompt.
func (c *Comparison) updateTitle() {
	if c.Title != "" || len(c.Rounds) == 0 {
		return
	}
	if u := c.Rounds[0].User; u != nil {
		c.Title = u.Preview(50)
	}
}

// GetTitle returns the comparison title or a default.
func (c *Comparison) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Comparison"
}

// =============================================================================
// MODEL CONVERSATION SYNTHESIS
// =============================================================================

// ModelConversation is one model's linear view of a comparison: an ordered
// message sequence alternating user/assistant by round.
type ModelConversation struct {
	Model    string     `json:"model"`
	Messages []*Message `json:"messages"`
}

// Conversation synthesizes the message sequence for one model by walking the
// rounds in order and emitting (user, assistant-if-present) pairs. A round
// the model did not answer contributes only its user message.
func (c *Comparison) Conversation(model string) *ModelConversation {
	mc := &ModelConversation{Model: model}
	for _, round := range c.Rounds {
		if round.User != nil {
			mc.Messages = append(mc.Messages, round.User)
		}
		if a := round.Assistant(model); a != nil {
			mc.Messages = append(mc.Messages, a)
		}
	}
	return mc
}

// LastMessage returns the most recent message, or nil if empty.
func (mc *ModelConversation) LastMessage() *Message {
	if len(mc.Messages) == 0 {
		return nil
	}
	return mc.Messages[len(mc.Messages)-1]
}

// =============================================================================
// BREAKOUT
// =============================================================================

// Breakout derives a standalone single-model comparison from a multi-model
// one: every user message from the source, plus only the assistant messages
// whose model matches target, in original round order. The derived
// comparison gets a fresh identity; the source is left untouched.
func (c *Comparison) Breakout(target string) *Comparison {
	out := NewComparison([]string{target})
	out.Title = c.Title
	out.CreatedAt = c.CreatedAt

	for _, round := range c.Rounds {
		var user *Message
		if round.User != nil {
			user = round.User.Clone()
		}
		nr := NewRound(user)
		if a := round.Assistant(target); a != nil {
			nr.Assistants[target] = a.Clone()
		}
		out.Rounds = append(out.Rounds, nr)
	}

	out.updateTitle()
	return out
}

// =============================================================================
// FLATTENING
// =============================================================================

// Flatten produces the flat, chronologically-sortable message list the
// durable store persists: per round, the user message followed by each
// model's assistant message in model order. Reconstructing from this list
// and re-flattening is idempotent (ignoring synthesized ids).
func (c *Comparison) Flatten() []*Message {
	var out []*Message
	for _, round := range c.Rounds {
		if round.User != nil {
			out = append(out, round.User)
		}
		for _, m := range c.Models {
			if a := round.Assistant(m); a != nil {
				out = append(out, a)
			}
		}
	}
	return out
}

// =============================================================================
// REQUEST HISTORY
// =============================================================================

// HistoryEntry is one (role, content, model) triple sent to the backend as
// prior conversation context. File placeholders are already expanded by the
// time history is built; entries are plain text.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// History returns the full prior history as backend triples: each round's
// user message followed by every model's finalized assistant message.
// Streaming placeholders are skipped; they are not history yet.
func (c *Comparison) History() []HistoryEntry {
	var out []HistoryEntry
	for _, round := range c.Rounds {
		if round.User != nil {
			out = append(out, HistoryEntry{Role: RoleUser.String(), Content: round.User.Content})
		}
		for _, m := range c.Models {
			a := round.Assistant(m)
			if a == nil || a.IsStreaming || a.IsEmpty() {
				continue
			}
			out = append(out, HistoryEntry{Role: RoleAssistant.String(), Content: a.Content, Model: m})
		}
	}
	return out
}

// =============================================================================
// METADATA
// =============================================================================

// ComparisonMeta holds lightweight metadata for listing.
type ComparisonMeta struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Models     []string  `json:"models"`
	RoundCount int       `json:"round_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Preview    string    `json:"preview"`
}

// Meta returns metadata about the comparison.
func (c *Comparison) Meta() ComparisonMeta {
	preview := ""
	if len(c.Rounds) > 0 && c.Rounds[0].User != nil {
		preview = c.Rounds[0].User.Preview(80)
	}
	return ComparisonMeta{
		ID:         c.ID,
		Title:      c.GetTitle(),
		Models:     append([]string(nil), c.Models...),
		RoundCount: len(c.Rounds),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Preview:    preview,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateComparisonID creates a unique comparison ID.
func generateComparisonID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
