// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare provides the side-by-side comparison view for the TUI.
//
// The view shows one column per model, all fed by a single multiplexed
// stream. Each column carries a phase badge (pending, streaming, done,
// error, timed out), shows the raw stream while the model produces text,
// and switches to formatted markdown once the model completes
// successfully. Repaints are throttled to a capped frame rate so fast
// streams render smoothly.
//
// Follow-ups go to every model in the comparison; a breakout narrows the
// conversation to a single model, after which follow-ups reach only that
// model.
package compare
