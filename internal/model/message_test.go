// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package model

import (
	"testing"
	"time"
)

func TestSameContent(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "hello", "hello", true},
		{"surrounding whitespace ignored", "  hello \n", "hello", true},
		{"different", "hello", "world", false},
		{"internal whitespace matters", "a b", "a  b", false},
		// e-acute as one codepoint vs e plus combining accent
		{"nfc normalization", "café", "café", true},
		{"both empty", "", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameContent(tt.a, tt.b); got != tt.want {
				t.Errorf("SameContent(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short passes through", "hello", 10, "hello"},
		{"newlines flattened", "a\nb\nc", 10, "a b c"},
		{"truncated with ellipsis", "abcdefghij", 8, "abcde..."},
		{"tiny max", "abcdef", 2, "ab"},
		{"unicode counted in runes", "日本語のテキスト", 20, "日本語のテキスト"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{Content: tt.content}
			if got := m.Preview(tt.maxLen); got != tt.want {
				t.Errorf("Preview(%d) = %q, want %q", tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestMessage_SetStreamContentOnlyWhileStreaming(t *testing.T) {
	m := NewAssistantPlaceholder("gpt")
	if !m.IsStreaming {
		t.Fatal("placeholder must start streaming")
	}

	m.SetStreamContent("partial")
	if m.Content != "partial" {
		t.Errorf("Content = %q, want %q", m.Content, "partial")
	}

	m.Finalize("final", time.Now(), false)
	m.SetStreamContent("too late")
	if m.Content != "final" {
		t.Errorf("Content = %q, finalized messages must be immutable", m.Content)
	}
}

func TestMessage_FinalizeBackfillsTimestamp(t *testing.T) {
	m := NewAssistantPlaceholder("gpt")
	done := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	m.Finalize("answer", done, false)

	if !m.Timestamp.Equal(done) {
		t.Errorf("Timestamp = %v, want back-filled %v", m.Timestamp, done)
	}
	if m.IsStreaming {
		t.Error("IsStreaming = true after Finalize")
	}

	// Second finalize is a no-op.
	m.Finalize("other", time.Now(), true)
	if m.Content != "answer" || m.Failed {
		t.Error("Finalize mutated an already-finalized message")
	}
}

func TestMessage_FinalizeKeepsTimestampWhenZero(t *testing.T) {
	m := NewAssistantPlaceholder("gpt")
	orig := m.Timestamp

	m.Finalize("answer", time.Time{}, true)

	if !m.Timestamp.Equal(orig) {
		t.Errorf("Timestamp = %v, zero completion time must not overwrite %v", m.Timestamp, orig)
	}
	if !m.Failed {
		t.Error("Failed flag not set")
	}
}

func TestMessage_Clone(t *testing.T) {
	m := NewUserMessage("original")
	cp := m.Clone()

	cp.Content = "mutated"
	if m.Content != "original" {
		t.Error("Clone shares state with the original")
	}
	if cp.ID != m.ID {
		t.Error("Clone changed the message identity")
	}
}
