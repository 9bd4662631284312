// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package client

import (
	"errors"
	"testing"

	"github.com/jaydeelew/compareintel-tui/internal/model"
)

func TestCompareRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *CompareRequest
		wantErr error
	}{
		{"valid", &CompareRequest{Input: "q", Models: []string{"a"}}, nil},
		{"empty input", &CompareRequest{Models: []string{"a"}}, ErrBadRequest},
		{"no models", &CompareRequest{Input: "q"}, ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewCompareRequest_TokenEstimate(t *testing.T) {
	req := NewCompareRequest("abcdefgh", []string{"a"})
	if req.InputTokenEstimate != 2 {
		t.Errorf("InputTokenEstimate = %d, want 2 (~4 chars per token)", req.InputTokenEstimate)
	}
}

func TestCompareRequest_WithHistory(t *testing.T) {
	req := NewCompareRequest("next", []string{"a"})
	base := req.InputTokenEstimate

	history := []model.HistoryEntry{
		{Role: "user", Content: "abcd"},
		{Role: "assistant", Content: "abcdefgh", Model: "a"},
	}
	req.WithHistory("conv_1", history)

	if req.ConversationID != "conv_1" {
		t.Errorf("ConversationID = %q, want %q", req.ConversationID, "conv_1")
	}
	if len(req.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(req.History))
	}
	if want := base + 1 + 2; req.InputTokenEstimate != want {
		t.Errorf("InputTokenEstimate = %d, want %d (history counted)", req.InputTokenEstimate, want)
	}
}
