// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare implements the streaming comparison orchestrator core.
package compare

import (
	"fmt"
	"strings"
)

// =============================================================================
// AGGREGATE MESSAGE
// =============================================================================

// Summary builds the user-visible aggregate message for the operation.
// The aggregate is only a summary: failed models stay individually
// inspectable through Snapshot, and failures are resolved per model before
// this rollup is produced.
//
// Examples:
//
//	"2 models completed successfully"
//	"1 model completed successfully, 1 model timed out after inactivity"
//	"Comparison cancelled, 1 model completed successfully"
func (op *Operation) Summary() string {
	succeeded, failed, timedOut, cancelled := op.Counts()

	var parts []string

	// User cancellation gets its own leading message and no failure
	// classification for the models it interrupted.
	if cancelled > 0 || op.EndedCause() == EndCancelled {
		parts = append(parts, "Comparison cancelled")
	}

	if succeeded > 0 {
		parts = append(parts, fmt.Sprintf("%d %s completed successfully", succeeded, modelWord(succeeded)))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d %s failed", failed, modelWord(failed)))
	}
	if timedOut > 0 {
		parts = append(parts, fmt.Sprintf("%d %s timed out after inactivity", timedOut, modelWord(timedOut)))
	}

	if len(parts) == 0 {
		return "No models responded"
	}
	return strings.Join(parts, ", ")
}

// modelWord returns "model" or "models" for a count.
func modelWord(n int) string {
	if n == 1 {
		return "model"
	}
	return "models"
}
