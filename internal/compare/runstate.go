// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare implements the streaming comparison orchestrator core.
package compare

import (
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// PHASE TYPE
// =============================================================================

// Phase is the lifecycle state of one model within one comparison operation.
// Phases only move forward: once a model reaches a terminal phase it never
// transitions again for that operation.
type Phase int

const (
	// PhasePending means the model was requested but has not started.
	PhasePending Phase = iota

	// PhaseStreaming means the model has started and may still produce text.
	PhaseStreaming

	// PhaseCompletedSuccess means the model finished with usable output.
	PhaseCompletedSuccess

	// PhaseCompletedError means the model finished without usable output:
	// an explicit error flag, empty text, recognized error text, or a forced
	// transition when the stream ended underneath it.
	PhaseCompletedError

	// PhaseTimedOut means the inactivity watchdog aborted the operation while
	// this model was still non-terminal.
	PhaseTimedOut
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseStreaming:
		return "streaming"
	case PhaseCompletedSuccess:
		return "completed_success"
	case PhaseCompletedError:
		return "completed_error"
	case PhaseTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase allows no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompletedSuccess || p == PhaseCompletedError || p == PhaseTimedOut
}

// =============================================================================
// FAILURE REASONS
// =============================================================================

// FailureReason records why a model ended in a non-success terminal phase.
// It refines the phase for user-visible messages; PhaseCompletedError alone
// cannot distinguish "the backend said error" from "the user hit cancel".
type FailureReason int

const (
	ReasonNone          FailureReason = iota
	ReasonErrorFlag                   // done frame carried error=true
	ReasonEmptyOutput                 // done frame with no accumulated text
	ReasonErrorContent                // accumulated text matches the error pattern
	ReasonStreamError                 // stream-level error frame ended the operation
	ReasonStreamEnded                 // stream closed while the model was non-terminal
	ReasonTimeout                     // inactivity watchdog fired
	ReasonCancelled                   // user-initiated cancellation
)

// String returns a short description of the reason.
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonErrorFlag:
		return "error"
	case ReasonEmptyOutput:
		return "empty output"
	case ReasonErrorContent:
		return "error content"
	case ReasonStreamError:
		return "stream error"
	case ReasonStreamEnded:
		return "stream ended"
	case ReasonTimeout:
		return "timed out"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// =============================================================================
// MODEL RUN STATE
// =============================================================================

// ModelRunState tracks one model's progress through one comparison operation.
// All mutation happens through Operation.Apply and Operation.EndStream, which
// hold the operation lock; readers outside the decode loop must go through
// Operation snapshot accessors.
type ModelRunState struct {
	// Model is the model identifier (e.g. "claude-sonnet", "gpt-4o").
	Model string

	// Phase only moves forward; see Phase.
	Phase Phase

	// Reason refines a failed terminal phase.
	Reason FailureReason

	// Accumulated text, append-only.
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	text strings.Builder

	// Timestamps.
	StartedAt   time.Time // set on the start frame
	CompletedAt time.Time // set on the terminal transition
	LastChunkAt time.Time // updated on every chunk and keepalive

	// FormattedView is true once the display for this model has been switched
	// from raw-stream view to formatted view. The switch happens per model as
	// soon as it individually succeeds; a second pass re-applies it when the
	// whole operation ends.
	FormattedView bool
}

// Text returns the accumulated text so far.
func (s *ModelRunState) Text() string {
	return s.text.String()
}

// HasText reports whether any text has accumulated.
func (s *ModelRunState) HasText() bool {
	return s.text.Len() > 0
}

// Succeeded reports whether the model ended in success.
func (s *ModelRunState) Succeeded() bool {
	return s.Phase == PhaseCompletedSuccess
}

// appendChunk appends incremental content and stamps activity.
func (s *ModelRunState) appendChunk(content string, now time.Time) {
	s.text.WriteString(content)
	s.LastChunkAt = now
}

// =============================================================================
// ERROR TEXT PATTERN
// =============================================================================

// errTextPattern recognizes backend error payloads that arrive as ordinary
// chunk content instead of an error flag. A model whose accumulated output
// matches is classified failed even when its done frame says otherwise.
var errTextPattern = regexp.MustCompile(`(?i)^\s*(\[?error\]?[:\s]|an error occurred|request failed|rate limit exceeded|model .* (is )?unavailable)`)

// IsErrorText reports whether content looks like an error payload rather
// than a real answer.
func IsErrorText(content string) bool {
	return errTextPattern.MatchString(content)
}
