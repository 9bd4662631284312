// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package model contains the conversation data model for multi-model
// comparisons: messages, rounds, the Comparison aggregate, the reconciler
// that merges streamed output into it, breakout derivation, and the
// reconstruction of round structure from a flat persisted message list.
//
// Ownership: once the reconciler hands messages to a Comparison they belong
// to the conversation. A live comparison operation only ever amends the
// assistant placeholders of the round it opened, and only while the owning
// model is still streaming.
package model
