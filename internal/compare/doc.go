// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare implements the client-side streaming comparison
// orchestrator: the state shared by one "submit prompt to N models" round.
//
// An Operation owns one ModelRunState per participating model and is the
// reducer for decoded stream frames: Apply folds each frame into per-model
// phase, accumulated text and activity timestamps, strictly in arrival
// order. Phases only move forward; when the stream ends for any reason,
// EndStream force-terminates whatever is still running with a classification
// that depends on why the stream ended (normal close, user cancel, watchdog
// timeout, transport failure).
//
// The Watchdog observes the Operation and aborts the stream only when every
// non-terminal model has been silent for the full inactivity threshold. It
// never fires while anything is producing output.
//
// No state survives across operations: a new submit builds a new Operation,
// and finished output leaves the package only through RunSnapshot copies
// handed to the conversation reconciler.
package compare
