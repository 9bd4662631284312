// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare provides the side-by-side comparison view for the TUI.
//
// This file defines the Bubble Tea message types used by the comparison
// interface. Messages fall into these categories:
//   - Streaming: run completion
//   - Persistence: save results
//   - UI State: render ticks, resize
//
// All message types follow Bubble Tea conventions and are immutable.
// Frame arrival is not a message: the per-frame callback only marks the
// render throttle, and the ticker pulls fresh snapshots at a capped rate.
package compare

import (
	"github.com/jaydeelew/compareintel-tui/internal/client"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// RunFinishedMsg signals that the streaming run ended, for any cause.
type RunFinishedMsg struct {
	Result client.RunResult
}

// =============================================================================
// PERSISTENCE MESSAGES
// =============================================================================

// SavedMsg reports the outcome of persisting the conversation.
type SavedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// RenderTickMsg drives the capped-rate repaint loop while streaming.
type RenderTickMsg struct{}
