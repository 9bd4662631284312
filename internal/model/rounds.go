// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package model contains the data structures for multi-model conversations.
package model

import (
	"sort"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/compare"
)

// =============================================================================
// HISTORY RECONSTRUCTION
// =============================================================================

// AssistantDedupWindow is the tolerance for recognizing the same assistant
// round-entry twice in a persisted flat list: same model, same content,
// timestamps within this window. Double-saves during throttled refresh can
// produce such near-duplicates.
const AssistantDedupWindow = time.Second

// ReconstructRounds rebuilds the round structure from a flat,
// chronologically-sortable list of persisted messages.
//
// Algorithm: sort by timestamp, scan once. Every user message opens a new
// round (closing the previous one). Each assistant message attaches to the
// open round unless that round already has an entry for the same model, or
// the previous round holds a duplicate within AssistantDedupWindow. An
// assistant message arriving before any user message is dropped — it has no
// round to belong to.
func ReconstructRounds(flat []*Message) []*Round {
	msgs := make([]*Message, len(flat))
	copy(msgs, flat)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})

	var rounds []*Round
	var open *Round

	for _, msg := range msgs {
		switch msg.Role {
		case RoleUser:
			open = NewRound(msg)
			rounds = append(rounds, open)

		case RoleAssistant:
			if open == nil || msg.Model == "" {
				continue
			}
			if open.Assistants[msg.Model] != nil {
				// Duplicate guard: one entry per model per round.
				continue
			}
			if isRecentDuplicate(rounds, msg) {
				continue
			}
			open.Assistants[msg.Model] = msg
		}
	}

	return rounds
}

// isRecentDuplicate reports whether an identical assistant entry for the
// same model already landed in the previous round within the tolerance
// window.
func isRecentDuplicate(rounds []*Round, msg *Message) bool {
	if len(rounds) < 2 {
		return false
	}
	prev := rounds[len(rounds)-2]
	a := prev.Assistant(msg.Model)
	if a == nil {
		return false
	}
	if !SameContent(a.Content, msg.Content) {
		return false
	}
	delta := msg.Timestamp.Sub(a.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	return delta <= AssistantDedupWindow
}

// RebuildComparison reconstructs a full Comparison from a persisted flat
// message list plus the participating models. Used when loading a saved
// conversation from either store backend.
func RebuildComparison(id, title string, participants []string, flat []*Message) *Comparison {
	c := NewComparison(participants)
	if id != "" {
		c.ID = id
	}
	c.Title = title
	c.Rounds = dedupeRounds(ReconstructRounds(flat))

	if len(flat) > 0 {
		c.CreatedAt = earliestTimestamp(flat)
		c.UpdatedAt = latestTimestamp(flat)
	}
	c.updateTitle()
	return c
}

// dedupeRounds collapses adjacent rounds whose user messages are the same
// submission recorded twice: identical content inside the follow-up window.
func dedupeRounds(rounds []*Round) []*Round {
	var out []*Round
	for _, round := range rounds {
		if round.User == nil {
			continue
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.User != nil && SameContent(prev.User.Content, round.User.Content) {
				delta := round.User.Timestamp.Sub(prev.User.Timestamp)
				if delta < 0 {
					delta = -delta
				}
				if delta <= FollowUpDedupWindow {
					// Merge: keep the earlier user message, adopt any
					// assistants the duplicate round collected.
					for m, a := range round.Assistants {
						if prev.Assistants[m] == nil {
							prev.Assistants[m] = a
						}
					}
					continue
				}
			}
		}
		out = append(out, round)
	}
	return out
}

// =============================================================================
// LOAD-TIME FAILURE DETECTION
// =============================================================================

// FailedModels returns the participants that should be shown as failed when
// a saved comparison is loaded: a model with zero assistant messages, one
// whose latest assistant content matches the recognized error pattern, or
// one whose latest stored message carries an explicit failure flag.
func (c *Comparison) FailedModels() []string {
	var failed []string
	for _, m := range c.Models {
		if c.modelFailed(m) {
			failed = append(failed, m)
		}
	}
	return failed
}

func (c *Comparison) modelFailed(model string) bool {
	var latest *Message
	for _, round := range c.Rounds {
		if a := round.Assistant(model); a != nil {
			latest = a
		}
	}
	if latest == nil {
		return true
	}
	if latest.Failed {
		return true
	}
	return compare.IsErrorText(latest.Content)
}

// =============================================================================
// TIMESTAMP HELPERS
// =============================================================================

func earliestTimestamp(msgs []*Message) time.Time {
	t := msgs[0].Timestamp
	for _, m := range msgs[1:] {
		if m.Timestamp.Before(t) {
			t = m.Timestamp
		}
	}
	return t
}

func latestTimestamp(msgs []*Message) time.Time {
	t := msgs[0].Timestamp
	for _, m := range msgs[1:] {
		if m.Timestamp.After(t) {
			t = m.Timestamp
		}
	}
	return t
}
