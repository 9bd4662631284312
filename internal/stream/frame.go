// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package stream decodes the comparison event stream into typed frames.
package stream

import "fmt"

// =============================================================================
// FRAME KINDS
// =============================================================================

// Kind identifies the type of an event frame.
type Kind string

const (
	// KindStart signals that a model began processing.
	KindStart Kind = "start"

	// KindChunk carries incremental text for one model.
	KindChunk Kind = "chunk"

	// KindKeepalive is a liveness signal with no content. Sent while a model
	// does long-running work (e.g. retrieval) that produces no visible text.
	KindKeepalive Kind = "keepalive"

	// KindDone signals that one model finished, successfully or not.
	KindDone Kind = "done"

	// KindComplete signals that the whole operation finished and carries
	// aggregate usage metadata.
	KindComplete Kind = "complete"

	// KindError is a fatal stream-level error.
	KindError Kind = "error"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether the kind is one the decoder recognizes.
func (k Kind) IsValid() bool {
	switch k {
	case KindStart, KindChunk, KindKeepalive, KindDone, KindComplete, KindError:
		return true
	}
	return false
}

// =============================================================================
// FRAME TYPE
// =============================================================================

// Frame is one decoded event record from the comparison stream.
// It is a tagged union: Kind selects which of the remaining fields are
// meaningful. Dispatch on Kind, never on field presence.
type Frame struct {
	Kind Kind `json:"type"`

	// Model identifies which model the frame belongs to.
	// Required for start, chunk and done; optional for keepalive.
	Model string `json:"model,omitempty"`

	// Content is the incremental text of a chunk frame.
	Content string `json:"content,omitempty"`

	// Error marks a done frame as a failure.
	Error bool `json:"error,omitempty"`

	// Message is the human-readable text of a stream-level error frame.
	Message string `json:"message,omitempty"`

	// Metadata accompanies a complete frame.
	Metadata *CompleteMetadata `json:"metadata,omitempty"`
}

// CompleteMetadata is the aggregate payload of a complete frame.
type CompleteMetadata struct {
	// Per-operation model counts as the backend saw them.
	ModelsRequested int `json:"models_requested"`
	ModelsSucceeded int `json:"models_succeeded"`
	ModelsFailed    int `json:"models_failed"`

	// Token usage for the whole operation.
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`

	// Billing signal (read-only for the client, never mutated here).
	CreditsRemaining    float64 `json:"credits_remaining"`
	InsufficientCredits bool    `json:"insufficient_credits,omitempty"`
}

// Validate checks that the frame carries the fields its kind requires.
// Frames that fail validation are treated like malformed JSON: skipped.
func (f *Frame) Validate() error {
	if !f.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedFrame, string(f.Kind))
	}

	switch f.Kind {
	case KindStart, KindChunk, KindDone:
		if f.Model == "" {
			return fmt.Errorf("%w: %s frame without model", ErrMalformedFrame, f.Kind)
		}
	case KindError:
		if f.Message == "" {
			return fmt.Errorf("%w: error frame without message", ErrMalformedFrame)
		}
	case KindComplete:
		if f.Metadata == nil {
			return fmt.Errorf("%w: complete frame without metadata", ErrMalformedFrame)
		}
	}

	return nil
}

// IsTerminalForModel reports whether this frame ends the lifecycle of the
// model it names.
func (f *Frame) IsTerminalForModel() bool {
	return f.Kind == KindDone
}
