// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package model contains the data structures for multi-model conversations.
package model

import (
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/compare"
)

// =============================================================================
// RECONCILER
// =============================================================================

// FollowUpDedupWindow bounds how recently a user message must have been
// submitted for a re-entrant follow-up with identical content to be treated
// as the same turn rather than a new round. Guards against double-appends
// caused by the throttled UI refresh re-running an update pass.
const FollowUpDedupWindow = 5 * time.Second

// Reconciler merges streamed output into the durable conversation model.
// Two modes: a new comparison opens the first round, a follow-up appends a
// round to an existing comparison. In both cases rounds are created with
// empty assistant placeholders before the first byte arrives, amended in
// place while streaming, and finalized from the operation's actual run state.
type Reconciler struct {
	now func() time.Time
}

// NewReconciler creates a reconciler using the wall clock.
func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now}
}

// NewReconcilerWithClock creates a reconciler with an injected clock.
func NewReconcilerWithClock(now func() time.Time) *Reconciler {
	return &Reconciler{now: now}
}

// =============================================================================
// ROUND CREATION
// =============================================================================

// BeginComparison starts a fresh comparison over the given models and opens
// its first round: one user message plus an empty assistant placeholder per
// model, so the UI has a stable anchor before the stream produces anything.
func (r *Reconciler) BeginComparison(models []string, prompt string) *Comparison {
	c := NewComparison(models)
	r.openRound(c, prompt)
	return c
}

// BeginFollowUp appends a new round for a follow-up prompt, or reuses the
// last round when the submission is a duplicate of the turn in flight.
//
// Duplicate suppression: if the last round's user message has identical
// content and was submitted within FollowUpDedupWindow, the existing round's
// assistant placeholders are updated instead of appending a second round.
// This is a best-effort heuristic over (content, time-window), not identity.
func (r *Reconciler) BeginFollowUp(c *Comparison, prompt string) *Round {
	if last := c.LastRound(); last != nil && last.User != nil {
		if SameContent(last.User.Content, prompt) &&
			r.now().Sub(last.User.Timestamp) <= FollowUpDedupWindow {
			// Same turn resubmitted: reset the placeholders in place.
			for _, m := range c.Models {
				if a := last.Assistant(m); a == nil || !a.IsStreaming {
					last.Assistants[m] = NewAssistantPlaceholder(m)
				}
			}
			c.UpdatedAt = r.now()
			return last
		}
	}
	return r.openRound(c, prompt)
}

// openRound appends a (user, placeholder-per-model) round.
func (r *Reconciler) openRound(c *Comparison, prompt string) *Round {
	user := NewUserMessage(prompt)
	user.Timestamp = r.now()

	round := NewRound(user)
	for _, m := range c.Models {
		round.Assistants[m] = NewAssistantPlaceholder(m)
	}

	c.Rounds = append(c.Rounds, round)
	c.UpdatedAt = r.now()
	c.updateTitle()
	return round
}

// =============================================================================
// STREAMING UPDATES
// =============================================================================

// UpdateStreaming replaces the in-flight assistant content for one model in
// the last round. The message stays amendable until Finalize.
func (r *Reconciler) UpdateStreaming(c *Comparison, model, content string) {
	last := c.LastRound()
	if last == nil {
		return
	}
	if a := last.Assistant(model); a != nil {
		a.SetStreamContent(content)
	}
}

// =============================================================================
// FINALIZATION
// =============================================================================

// Finalize seals the last round from the finished operation's run states.
// Content and failure marks come from the tracker; timestamps are
// back-filled from each model's actual start/done times rather than the
// wall-clock time of rendering. Models the operation never tracked keep
// their placeholder removed, leaving a gap in the round.
func (r *Reconciler) Finalize(c *Comparison, runs []compare.RunSnapshot) {
	last := c.LastRound()
	if last == nil {
		return
	}

	seen := make(map[string]bool, len(runs))
	for _, run := range runs {
		seen[run.Model] = true

		a := last.Assistant(run.Model)
		if a == nil {
			a = NewAssistantPlaceholder(run.Model)
			last.Assistants[run.Model] = a
		}

		at := run.CompletedAt
		if at.IsZero() {
			at = run.StartedAt
		}
		a.Finalize(run.Text, at, !run.Succeeded())

		if !run.StartedAt.IsZero() && last.User != nil && last.User.Timestamp.After(run.StartedAt) {
			// The backend's start time is authoritative for round ordering.
			last.User.Timestamp = run.StartedAt.Add(-time.Millisecond)
		}
	}

	// Placeholders for models the stream never mentioned leave a gap.
	for m, a := range last.Assistants {
		if !seen[m] && a.IsStreaming && a.IsEmpty() {
			delete(last.Assistants, m)
		}
	}

	c.UpdatedAt = r.now()
}
