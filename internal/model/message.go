// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package model contains the data structures for multi-model conversations.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single message in a conversation. A finalized message is
// immutable; only an assistant message whose owning model is still streaming
// may be amended, and only through SetStreamContent/Finalize.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Model is the owning model identifier (assistant messages only).
	Model string `json:"model,omitempty"`

	// Token counts, when the backend reported them.
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`

	// Failed marks an assistant message whose model did not succeed.
	// Persisted, so reloading a conversation keeps the failure visible.
	Failed bool `json:"failed,omitempty"`

	// Streaming state (not persisted). True while the owning model is still
	// in its streaming phase; the message may be amended until Finalize.
	IsStreaming bool `json:"-"`
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantPlaceholder creates an empty, streaming assistant message for
// the given model. The reconciler creates one per model before the first
// byte arrives so the UI has a stable anchor to update in place.
func NewAssistantPlaceholder(model string) *Message {
	return &Message{
		ID:          generateMessageID(),
		Role:        RoleAssistant,
		Model:       model,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// SetStreamContent replaces the content of a still-streaming message.
// No-op on a finalized message.
func (m *Message) SetStreamContent(content string) {
	if m.IsStreaming {
		m.Content = content
	}
}

// Finalize seals the message. Timestamp and token counts are back-filled
// from the model's actual run, not the wall-clock time of rendering.
func (m *Message) Finalize(content string, at time.Time, failed bool) {
	if !m.IsStreaming {
		return
	}
	m.Content = content
	m.Failed = failed
	if !at.IsZero() {
		m.Timestamp = at
	}
	m.IsStreaming = false
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// EstimateTokens gives a rough estimate of token count (~4 chars per token).
func (m *Message) EstimateTokens() int {
	return (len(m.Content) + 3) / 4
}

// Clone returns a copy of the message.
func (m *Message) Clone() *Message {
	cp := *m
	return &cp
}

// =============================================================================
// CONTENT EQUALITY
// =============================================================================

// SameContent compares message content for the duplicate-suppression
// heuristics. Content is NFC-normalized and trimmed first so that visually
// identical input typed twice compares equal regardless of encoding form.
func SameContent(a, b string) bool {
	return norm.NFC.String(strings.TrimSpace(a)) == norm.NFC.String(strings.TrimSpace(b))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
