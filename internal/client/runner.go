// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package client provides the HTTP transport to the CompareIntel backend.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/compare"
	"github.com/jaydeelew/compareintel-tui/internal/stream"
)

// =============================================================================
// RUNNER
// =============================================================================

// Runner drives one comparison operation end to end: open the stream, decode
// frames into the operation, keep the watchdog fed, and classify why the
// stream ended. There is at most one live operation at a time; starting a
// new run cancels and disposes the previous one's stream and timers first.
type Runner struct {
	client *Client

	// Watchdog thresholds (zero values mean package defaults).
	InactivityThreshold time.Duration
	ActiveWindow        time.Duration

	mu         sync.Mutex
	cancelCurr context.CancelFunc
	userCancel *atomic.Bool
}

// NewRunner creates a runner over the given backend client.
func NewRunner(c *Client) *Runner {
	return &Runner{client: c}
}

// RunResult reports how a comparison run ended.
type RunResult struct {
	// Cause classifies the stream end; the operation's force-terminal rules
	// were applied under it.
	Cause compare.EndCause

	// Err is the transport error when Cause is EndTransportError, or the
	// stream-open failure. Nil for normal, cancelled and timed-out ends.
	Err error
}

// Cancel aborts the live operation, if any, as a user-initiated
// cancellation. Safe to call at any time.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.cancelCurr
	flag := r.userCancel
	r.mu.Unlock()

	if flag != nil {
		flag.Store(true)
	}
	if cancel != nil {
		cancel()
	}
}

// Run executes one comparison. Frames are applied to op strictly in arrival
// order; onEvent (optional) is invoked after each applied frame so the
// caller can schedule a coalesced UI refresh. Run blocks until the stream
// ends and op reaches its final state — every model terminal, EndStream
// applied with the correct cause.
func (r *Runner) Run(ctx context.Context, req *CompareRequest, op *compare.Operation, onEvent func()) RunResult {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	userCancelled := &atomic.Bool{}
	timedOut := &atomic.Bool{}

	// Replace any previous live operation.
	r.mu.Lock()
	if r.cancelCurr != nil {
		if r.userCancel != nil {
			r.userCancel.Store(true)
		}
		r.cancelCurr()
	}
	r.cancelCurr = cancel
	r.userCancel = userCancelled
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.userCancel == userCancelled {
			r.cancelCurr = nil
			r.userCancel = nil
		}
		r.mu.Unlock()
	}()

	// The watchdog aborts the whole stream, not individual models.
	watchdog := compare.NewWatchdogWithConfig(op, func() {
		timedOut.Store(true)
		cancel()
	}, r.InactivityThreshold, r.ActiveWindow)
	defer watchdog.Stop()

	body, err := r.client.OpenStream(streamCtx, req)
	if err != nil {
		op.EndStream(compare.EndTransportError)
		return RunResult{Cause: compare.EndTransportError, Err: err}
	}
	defer body.Close()

	watchdog.Poke()

	decoder := stream.NewDecoder(body)
	procErr := decoder.Process(streamCtx, func(f *stream.Frame) {
		op.Apply(f)
		switch f.Kind {
		case stream.KindStart, stream.KindChunk, stream.KindKeepalive, stream.KindDone:
			watchdog.Poke()
		}
		if onEvent != nil {
			onEvent()
		}
	})
	watchdog.Stop()

	cause := classifyEnd(procErr, userCancelled.Load(), timedOut.Load(), ctx)
	op.EndStream(cause)

	res := RunResult{Cause: cause}
	if cause == compare.EndTransportError {
		res.Err = &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: procErr}
	}
	if onEvent != nil {
		// The final state is always flushed, whatever the throttle did.
		onEvent()
	}
	return res
}

// classifyEnd distinguishes the four stream-end causes.
func classifyEnd(procErr error, userCancelled, timedOut bool, parent context.Context) compare.EndCause {
	switch {
	case timedOut:
		return compare.EndTimeout
	case userCancelled:
		return compare.EndCancelled
	case procErr == nil:
		return compare.EndNormal
	case parent.Err() != nil:
		// The surrounding context (not the watchdog) was cancelled:
		// treat as user-initiated.
		return compare.EndCancelled
	default:
		return compare.EndTransportError
	}
}
