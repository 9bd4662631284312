// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare implements the streaming comparison orchestrator core.
package compare

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaydeelew/compareintel-tui/internal/stream"
)

// =============================================================================
// END CAUSES
// =============================================================================

// EndCause says why the underlying stream stopped. The force-terminal rules
// applied to still-running models depend on it.
type EndCause int

const (
	// EndNormal: the stream finished on its own (complete frame or clean EOF).
	EndNormal EndCause = iota

	// EndCancelled: the user aborted the operation. No error classification.
	EndCancelled

	// EndTimeout: the inactivity watchdog aborted the operation.
	EndTimeout

	// EndTransportError: the connection dropped or the read failed.
	// Partial results are preserved.
	EndTransportError
)

// String returns the string representation of the cause.
func (c EndCause) String() string {
	switch c {
	case EndNormal:
		return "normal"
	case EndCancelled:
		return "cancelled"
	case EndTimeout:
		return "timeout"
	case EndTransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// =============================================================================
// OPERATION
// =============================================================================

// FormatHook is called when a model's display should switch from raw-stream
// view to formatted view. Called once per model as soon as that model
// succeeds, and again for every successful model when the whole operation
// reaches a terminal state (covers the race where the per-model switch fired
// before a dependent renderer was ready).
type FormatHook func(model string)

// Operation owns all per-model run state for one comparison submit.
// There is at most one live Operation at a time; starting a new comparison
// must first end the previous operation's stream and timers.
//
// Frames are applied strictly in arrival order by a single decode loop, but
// the watchdog and UI read state from other goroutines, so every access goes
// through the operation lock.
type Operation struct {
	mu sync.Mutex

	// ID identifies this operation (not the conversation).
	ID string

	// models preserves submission order.
	models []string
	states map[string]*ModelRunState

	// Stream-level outcome.
	metadata  *stream.CompleteMetadata
	streamErr string   // message of a fatal error frame, if one arrived
	ended     bool
	endCause  EndCause

	// Hooks and clock.
	formatHook FormatHook
	now        func() time.Time
}

// NewOperation creates an operation tracking the given models, all pending.
func NewOperation(models []string) *Operation {
	return NewOperationWithClock(models, time.Now)
}

// NewOperationWithClock creates an operation with an injected clock.
// Tests use this to drive the timestamp-sensitive rules deterministically.
func NewOperationWithClock(models []string, now func() time.Time) *Operation {
	op := &Operation{
		ID:     uuid.New().String(),
		models: make([]string, 0, len(models)),
		states: make(map[string]*ModelRunState, len(models)),
		now:    now,
	}
	for _, m := range models {
		op.addModelLocked(m)
	}
	return op
}

// SetFormatHook installs the formatted-view switch callback.
func (op *Operation) SetFormatHook(hook FormatHook) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.formatHook = hook
}

// addModelLocked registers a model if it is not already tracked.
func (op *Operation) addModelLocked(model string) *ModelRunState {
	if s, ok := op.states[model]; ok {
		return s
	}
	s := &ModelRunState{Model: model, Phase: PhasePending}
	op.states[model] = s
	op.models = append(op.models, model)
	return s
}

// =============================================================================
// REDUCER
// =============================================================================

// Apply folds one decoded frame into the operation state. This is the only
// transition function: (operation state, frame) -> operation state. Frames
// for models already in a terminal phase are ignored (phases only move
// forward within one operation).
func (op *Operation) Apply(frame *stream.Frame) {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.ended {
		return
	}

	now := op.now()

	switch frame.Kind {
	case stream.KindStart:
		s := op.addModelLocked(frame.Model)
		if s.Phase != PhasePending {
			return
		}
		s.Phase = PhaseStreaming
		s.StartedAt = now
		s.LastChunkAt = now

	case stream.KindChunk:
		s := op.addModelLocked(frame.Model)
		if s.Phase.Terminal() {
			return
		}
		// A chunk before the start frame still means the model is running.
		if s.Phase == PhasePending {
			s.Phase = PhaseStreaming
			s.StartedAt = now
		}
		s.appendChunk(frame.Content, now)

	case stream.KindKeepalive:
		// Liveness only, no content. A keepalive without a model refreshes
		// every non-terminal model.
		if frame.Model != "" {
			if s, ok := op.states[frame.Model]; ok && !s.Phase.Terminal() {
				s.LastChunkAt = now
			}
			return
		}
		for _, s := range op.states {
			if !s.Phase.Terminal() {
				s.LastChunkAt = now
			}
		}

	case stream.KindDone:
		s := op.addModelLocked(frame.Model)
		if s.Phase.Terminal() {
			return
		}
		op.finishModelLocked(s, frame.Error, now)

	case stream.KindComplete:
		op.metadata = frame.Metadata

	case stream.KindError:
		// Fatal stream-level error: every non-terminal model fails, partial
		// text preserved. Models that already succeeded stay succeeded.
		op.streamErr = frame.Message
		for _, s := range op.states {
			if s.Phase.Terminal() {
				continue
			}
			s.Phase = PhaseCompletedError
			s.Reason = ReasonStreamError
			s.CompletedAt = now
		}
		op.refireFormatLocked()
	}
}

// finishModelLocked applies the done-frame classification rules.
func (op *Operation) finishModelLocked(s *ModelRunState, errFlag bool, now time.Time) {
	s.CompletedAt = now

	switch {
	case errFlag:
		s.Phase = PhaseCompletedError
		s.Reason = ReasonErrorFlag
	case !s.HasText():
		// Empty output is a failure even without an explicit error flag.
		s.Phase = PhaseCompletedError
		s.Reason = ReasonEmptyOutput
	case IsErrorText(s.Text()):
		s.Phase = PhaseCompletedError
		s.Reason = ReasonErrorContent
	default:
		s.Phase = PhaseCompletedSuccess
		// The display switch happens as soon as this model finishes; it
		// must not wait for the slowest model.
		s.FormattedView = true
		if op.formatHook != nil {
			op.formatHook(s.Model)
		}
	}

	if op.allTerminalLocked() {
		op.refireFormatLocked()
	}
}

// refireFormatLocked re-applies the formatted-view switch to every
// successful model once everything is terminal.
func (op *Operation) refireFormatLocked() {
	if !op.allTerminalLocked() {
		return
	}
	for _, m := range op.models {
		s := op.states[m]
		if s.Succeeded() {
			s.FormattedView = true
			if op.formatHook != nil {
				op.formatHook(s.Model)
			}
		}
	}
}

// =============================================================================
// STREAM END
// =============================================================================

// EndStream force-terminates every model still pending or streaming, applying
// the cause-specific classification, then marks the operation ended.
// Safe to call more than once; only the first call does anything.
func (op *Operation) EndStream(cause EndCause) {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.ended {
		return
	}
	op.ended = true
	op.endCause = cause

	now := op.now()
	for _, s := range op.states {
		if s.Phase.Terminal() {
			continue
		}
		s.CompletedAt = now
		switch cause {
		case EndTimeout:
			s.Phase = PhaseTimedOut
			s.Reason = ReasonTimeout
		case EndCancelled:
			// Terminal but not classified as a model failure.
			s.Phase = PhaseCompletedError
			s.Reason = ReasonCancelled
		default:
			// Normal end or transport failure: no text means outright
			// failure; partial text is kept and shown, but the model is
			// still marked failed for accounting.
			s.Phase = PhaseCompletedError
			s.Reason = ReasonStreamEnded
		}
	}

	op.refireFormatLocked()
}

// Ended reports whether EndStream has run.
func (op *Operation) Ended() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.ended
}

// EndedCause returns the cause recorded by EndStream.
func (op *Operation) EndedCause() EndCause {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.endCause
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// RunSnapshot is an immutable copy of one model's state, safe to hand to the
// UI or the reconciler without holding the operation lock.
type RunSnapshot struct {
	Model         string
	Phase         Phase
	Reason        FailureReason
	Text          string
	StartedAt     time.Time
	CompletedAt   time.Time
	LastChunkAt   time.Time
	FormattedView bool
}

// Succeeded reports whether the snapshot is in the success phase.
func (r RunSnapshot) Succeeded() bool {
	return r.Phase == PhaseCompletedSuccess
}

// Snapshot returns copies of all model states in submission order.
func (op *Operation) Snapshot() []RunSnapshot {
	op.mu.Lock()
	defer op.mu.Unlock()

	out := make([]RunSnapshot, 0, len(op.models))
	for _, m := range op.models {
		out = append(out, op.snapshotLocked(op.states[m]))
	}
	return out
}

// State returns a copy of one model's state and whether it is tracked.
func (op *Operation) State(model string) (RunSnapshot, bool) {
	op.mu.Lock()
	defer op.mu.Unlock()

	s, ok := op.states[model]
	if !ok {
		return RunSnapshot{}, false
	}
	return op.snapshotLocked(s), true
}

func (op *Operation) snapshotLocked(s *ModelRunState) RunSnapshot {
	return RunSnapshot{
		Model:         s.Model,
		Phase:         s.Phase,
		Reason:        s.Reason,
		Text:          s.Text(),
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		LastChunkAt:   s.LastChunkAt,
		FormattedView: s.FormattedView,
	}
}

// Models returns the model identifiers in submission order.
func (op *Operation) Models() []string {
	op.mu.Lock()
	defer op.mu.Unlock()
	out := make([]string, len(op.models))
	copy(out, op.models)
	return out
}

// Metadata returns the complete-frame metadata, or nil if none arrived.
func (op *Operation) Metadata() *stream.CompleteMetadata {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.metadata
}

// StreamError returns the message of a fatal error frame, or "".
func (op *Operation) StreamError() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.streamErr
}

// =============================================================================
// AGGREGATE QUERIES
// =============================================================================

// AllTerminal reports whether every tracked model reached a terminal phase.
func (op *Operation) AllTerminal() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.allTerminalLocked()
}

func (op *Operation) allTerminalLocked() bool {
	for _, s := range op.states {
		if !s.Phase.Terminal() {
			return false
		}
	}
	return true
}

// ActiveWithin reports whether any non-terminal model received a chunk or
// keepalive within the given window of now. The watchdog uses this: the
// inactivity clock must not run while at least one model is alive.
func (op *Operation) ActiveWithin(window time.Duration, now time.Time) bool {
	op.mu.Lock()
	defer op.mu.Unlock()

	for _, s := range op.states {
		if s.Phase.Terminal() {
			continue
		}
		if !s.LastChunkAt.IsZero() && now.Sub(s.LastChunkAt) <= window {
			return true
		}
	}
	return false
}

// PersistWorthy reports whether the comparison counts as successful enough to
// persist and count against usage: at least one model produced non-error,
// non-empty output. If not, the caller keeps the typed input for retry and
// does not count the attempt.
func (op *Operation) PersistWorthy() bool {
	op.mu.Lock()
	defer op.mu.Unlock()

	for _, s := range op.states {
		if s.Succeeded() {
			return true
		}
	}
	return false
}

// Counts returns (succeeded, failed, timedOut, cancelled) model counts.
func (op *Operation) Counts() (succeeded, failed, timedOut, cancelled int) {
	op.mu.Lock()
	defer op.mu.Unlock()

	for _, s := range op.states {
		switch {
		case s.Phase == PhaseCompletedSuccess:
			succeeded++
		case s.Phase == PhaseTimedOut:
			timedOut++
		case s.Reason == ReasonCancelled:
			cancelled++
		case s.Phase == PhaseCompletedError:
			failed++
		}
	}
	return
}
