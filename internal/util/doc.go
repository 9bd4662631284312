// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package util provides small shared helpers for compareintel.
//
// String helpers are rune- and width-aware so terminal output never splits
// a multi-byte character. AtomicWriteFile provides crash-safe file writes
// for exports.
package util
