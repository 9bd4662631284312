// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare provides the side-by-side comparison view for the TUI.
//
// This file implements repaint throttling for smooth, flicker-free
// rendering while several models stream concurrently. Frame arrival is
// decoupled from repainting: frames mark the throttle dirty, and the
// render loop repaints at a capped frame rate.
package compare

import (
	"sync"
	"time"
)

// =============================================================================
// RENDER THROTTLE
// =============================================================================

// RenderThrottle coalesces repaint requests to a maximum frame rate.
// Stream frames can arrive faster than 1000/s across models; repainting
// per frame causes flicker and wasted CPU. The throttle marks itself
// dirty on every frame and releases at most maxFPS repaints per second.
//
// The final update is never dropped: Drain always reports a pending
// repaint regardless of timing, and is called when the run ends.
//
// Thread-safety: frames are applied from the streaming goroutine while
// repaints happen on the Bubble Tea loop, so all operations lock.
type RenderThrottle struct {
	mu        sync.Mutex
	dirty     bool
	lastPaint time.Time
	interval  time.Duration
}

// NewRenderThrottle creates a throttle capped at maxFPS repaints per
// second. Values outside (0, 60] fall back to 30fps.
func NewRenderThrottle(maxFPS int) *RenderThrottle {
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &RenderThrottle{
		interval: time.Second / time.Duration(maxFPS),
	}
}

// Mark records that state changed and a repaint is wanted.
func (rt *RenderThrottle) Mark() {
	rt.mu.Lock()
	rt.dirty = true
	rt.mu.Unlock()
}

// Take reports whether a repaint should happen now. When it returns true
// the dirty flag is cleared and the frame-rate window resets.
func (rt *RenderThrottle) Take() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.dirty {
		return false
	}
	if time.Since(rt.lastPaint) < rt.interval {
		return false
	}

	rt.dirty = false
	rt.lastPaint = time.Now()
	return true
}

// Drain clears and reports any pending repaint, ignoring the frame-rate
// cap. Called when streaming ends so the last state always reaches the
// screen.
func (rt *RenderThrottle) Drain() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	wasDirty := rt.dirty
	rt.dirty = false
	rt.lastPaint = time.Now()
	return wasDirty
}

// Interval returns the minimum time between repaints.
func (rt *RenderThrottle) Interval() time.Duration {
	return rt.interval
}
