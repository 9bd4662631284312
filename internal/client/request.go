// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package client provides the HTTP transport to the CompareIntel backend.
package client

import (
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CompareRequest is the request body for the comparison endpoint.
// File placeholders must be resolved (expanded to plain text) before the
// request is built; the backend only deals in text.
type CompareRequest struct {
	// Input is the prompt text, already expanded.
	Input string `json:"input"`

	// Models are the model identifiers to fan out to.
	Models []string `json:"models"`

	// History is the prior conversation as (role, content, model) triples.
	History []model.HistoryEntry `json:"history,omitempty"`

	// ConversationID links a follow-up to its saved conversation.
	ConversationID string `json:"conversation_id,omitempty"`

	// WebSearch enables the backend's search tool for this round.
	WebSearch bool `json:"web_search,omitempty"`

	// Timezone is the client's IANA timezone name, for time-aware prompts.
	Timezone string `json:"timezone,omitempty"`

	// InputTokenEstimate is the client's pre-computed token estimate,
	// letting the backend reject over-budget requests before fan-out.
	InputTokenEstimate int `json:"input_token_estimate,omitempty"`
}

// Validate checks the request before it leaves the client.
func (r *CompareRequest) Validate() error {
	if r.Input == "" {
		return &ClientError{Type: ErrTypeBadRequest, Message: "empty input"}
	}
	if len(r.Models) == 0 {
		return &ClientError{Type: ErrTypeBadRequest, Message: "no models selected"}
	}
	return nil
}

// NewCompareRequest builds a request for a prompt against the given models,
// filling in the client-side ambient fields (timezone, token estimate).
func NewCompareRequest(input string, models []string) *CompareRequest {
	zone, _ := time.Now().Zone()
	return &CompareRequest{
		Input:              input,
		Models:             models,
		Timezone:           zone,
		InputTokenEstimate: estimateTokens(input),
	}
}

// WithHistory attaches prior history and the conversation id for follow-ups.
func (r *CompareRequest) WithHistory(conversationID string, history []model.HistoryEntry) *CompareRequest {
	r.ConversationID = conversationID
	r.History = history
	for _, h := range history {
		r.InputTokenEstimate += estimateTokens(h.Content)
	}
	return r
}

// estimateTokens uses the ~4 chars/token approximation.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
