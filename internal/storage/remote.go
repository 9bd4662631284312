// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package storage provides durable conversation persistence.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jaydeelew/compareintel-tui/internal/model"
)

// =============================================================================
// REMOTE STORE
// =============================================================================

// RemoteStore is the API-backed Store backend: conversations live on the
// CompareIntel account and follow the user across devices. It satisfies the
// same contract as LocalStore; the core never distinguishes them.
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client

	// limiter keeps bursty UI-driven saves from hammering the API.
	limiter *rate.Limiter
}

// NewRemoteStore creates a remote store against the given API base URL.
func NewRemoteStore(baseURL, apiKey string) *RemoteStore {
	return &RemoteStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// =============================================================================
// STORE IMPLEMENTATION
// =============================================================================

// Save persists a comparison and returns its ID (the server may assign one).
func (s *RemoteStore) Save(ctx context.Context, c *model.Comparison) (string, error) {
	rec := toRecord(c)

	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/conversations", rec, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		out.ID = rec.ID
	}
	return out.ID, nil
}

// List returns summaries of all saved comparisons, most recent first.
func (s *RemoteStore) List(ctx context.Context) ([]model.ComparisonMeta, error) {
	var out []model.ComparisonMeta
	if err := s.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Load retrieves a comparison by ID.
func (s *RemoteStore) Load(ctx context.Context, id string) (*model.Comparison, error) {
	var rec StoredComparison
	if err := s.do(ctx, http.MethodGet, "/api/conversations/"+id, nil, &rec); err != nil {
		return nil, err
	}
	return fromRecord(&rec), nil
}

// Delete removes a comparison by ID.
func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/conversations/"+id, nil, nil)
}

// Close implements Store; the remote store holds no resources.
func (s *RemoteStore) Close() error {
	return nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// do runs one rate-limited API call, encoding body and decoding into out.
func (s *RemoteStore) do(ctx context.Context, method, path string, body, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &StoreError{Message: "request cancelled", Cause: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &StoreError{Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return &StoreError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &StoreError{Message: "store request failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Error string `json:"error"`
		}
		msg := "store request rejected"
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &StoreError{Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &StoreError{Message: "failed to decode response", Cause: err}
	}
	return nil
}
