// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare implements the streaming comparison orchestrator core.
package compare

import (
	"sync"
	"time"
)

// =============================================================================
// WATCHDOG DEFAULTS
// =============================================================================

const (
	// DefaultInactivityThreshold is how long the whole operation may be
	// silent before the watchdog aborts the stream.
	DefaultInactivityThreshold = 60 * time.Second

	// DefaultActiveWindow is how recent a model's last chunk must be for the
	// operation to count as currently active.
	DefaultActiveWindow = 5 * time.Second
)

// =============================================================================
// WATCHDOG
// =============================================================================

// Watchdog aborts a comparison only when nothing is happening, never merely
// because one slow model is still working.
//
// It is level-triggered and self-correcting: a single timer is re-armed on
// every chunk or keepalive (and once at start), so the deadline always sits
// one full threshold past the latest activity.
// When the timer fires it re-checks under a fresh "now" before aborting, so a
// burst that arrived while the timer was pending re-arms instead of killing
// the stream. It tolerates one model finishing while another is mid-burst,
// and it does not reset just because some model produced a byte if the
// specific stalled model never will — the abort is for the whole operation,
// and the whole operation is only starved when no model at all is alive.
type Watchdog struct {
	mu sync.Mutex

	op        *Operation
	threshold time.Duration
	window    time.Duration

	timer   *time.Timer
	stopped bool

	// onAbort aborts the underlying stream (typically a context cancel).
	onAbort func()

	now func() time.Time
}

// NewWatchdog creates a watchdog over op with default thresholds.
// onAbort is invoked at most once, from the timer goroutine, when the
// operation has been starved for the full inactivity threshold.
func NewWatchdog(op *Operation, onAbort func()) *Watchdog {
	return NewWatchdogWithConfig(op, onAbort, DefaultInactivityThreshold, DefaultActiveWindow)
}

// NewWatchdogWithConfig creates a watchdog with custom thresholds.
func NewWatchdogWithConfig(op *Operation, onAbort func(), threshold, window time.Duration) *Watchdog {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	if window <= 0 {
		window = DefaultActiveWindow
	}
	return &Watchdog{
		op:        op,
		threshold: threshold,
		window:    window,
		onAbort:   onAbort,
		now:       time.Now,
	}
}

// Poke re-evaluates the watchdog. Call once when the operation starts and
// again every time any model receives a chunk or keepalive.
func (w *Watchdog) Poke() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evaluateLocked()
}

// Stop cancels any pending timer permanently. Call when the stream ends.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.cancelTimerLocked()
}

// evaluateLocked applies the level-triggered decision procedure.
func (w *Watchdog) evaluateLocked() {
	if w.stopped {
		return
	}

	// 1. Every model terminal: nothing left to guard.
	if w.op.AllTerminal() {
		w.cancelTimerLocked()
		return
	}

	// 2. At least one non-terminal model: (re)arm the single timer. Poke is
	//    called on every event, so an active stream keeps pushing the
	//    deadline out; a stream that goes silent stops poking and the last
	//    armed timer carries the operation to the abort check.
	w.armLocked()
}

// armLocked (re)starts the inactivity timer.
func (w *Watchdog) armLocked() {
	w.cancelTimerLocked()
	w.timer = time.AfterFunc(w.threshold, w.fire)
}

// cancelTimerLocked stops a pending timer, if any.
func (w *Watchdog) cancelTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// fire runs when the inactivity timer expires. It re-checks under a fresh
// now: activity that resumed while the timer was pending re-arms instead of
// aborting.
func (w *Watchdog) fire() {
	w.mu.Lock()

	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.timer = nil

	if w.op.AllTerminal() {
		w.mu.Unlock()
		return
	}
	if w.op.ActiveWithin(w.window, w.now()) {
		w.armLocked()
		w.mu.Unlock()
		return
	}

	// Still starved: abort the underlying stream. The decode loop will see
	// the cancellation and the orchestrator calls EndStream(EndTimeout),
	// which force-transitions the remaining models to timed_out.
	w.stopped = true
	abort := w.onAbort
	w.mu.Unlock()

	if abort != nil {
		abort()
	}
}
