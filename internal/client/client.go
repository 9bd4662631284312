// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package client provides the HTTP transport to the CompareIntel backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the compare backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is against the sentinel values below.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeUnauthorized
	ErrTypeInsufficientCredits
	ErrTypeBadRequest
	ErrTypeServer
)

// Sentinel errors for easy checking.
var (
	ErrConnection          = &ClientError{Type: ErrTypeConnection, Message: "cannot reach compare backend"}
	ErrUnauthorized        = &ClientError{Type: ErrTypeUnauthorized, Message: "unauthorized"}
	ErrInsufficientCredits = &ClientError{Type: ErrTypeInsufficientCredits, Message: "insufficient credits"}
	ErrBadRequest          = &ClientError{Type: ErrTypeBadRequest, Message: "invalid request"}
	ErrServer              = &ClientError{Type: ErrTypeServer, Message: "backend error"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the compare backend client.
type Config struct {
	// BaseURL of the CompareIntel API.
	BaseURL string

	// APIKey for authenticated requests (optional for local backends).
	APIKey string

	// Timeout for non-streaming requests.
	Timeout time.Duration

	// StreamConnectTimeout bounds how long establishing the event stream may
	// take. The stream itself has no deadline; the inactivity watchdog owns
	// that decision.
	StreamConnectTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:              "http://127.0.0.1:8080",
		Timeout:              30 * time.Second,
		StreamConnectTimeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the CompareIntel comparison backend.
type Client struct {
	config *Config

	// Separate clients: requests get a hard timeout, streams must not.
	httpClient   *http.Client
	streamClient *http.Client
}

// New creates a client with the given configuration.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		streamClient: &http.Client{
			// No Timeout: a compare stream legitimately runs for minutes.
			// Cancellation is context-driven.
			Transport: &http.Transport{
				ResponseHeaderTimeout: config.StreamConnectTimeout,
			},
		},
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// STREAM OPENING
// =============================================================================

// OpenStream submits a comparison request and returns the raw event-stream
// body. The caller owns the returned ReadCloser and must close it; decoding
// is the stream package's job.
func (c *Client) OpenStream(ctx context.Context, req *CompareRequest) (io.ReadCloser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeBadRequest, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/compare", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeBadRequest, Message: "failed to build request", Cause: err}
	}

	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "cannot reach compare backend", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, c.errorFromStatus(resp.StatusCode, body)
	}

	return resp.Body, nil
}

// setHeaders applies the common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}

// errorFromStatus maps an HTTP error response to a typed client error.
func (c *Client) errorFromStatus(status int, body []byte) error {
	// The backend wraps errors as {"error": "..."}.
	var payload struct {
		Error string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Error
	}

	var base *ClientError
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrUnauthorized
	case http.StatusPaymentRequired:
		base = ErrInsufficientCredits
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = ErrBadRequest
	default:
		base = ErrServer
	}

	if msg == "" {
		return base
	}
	return &ClientError{Type: base.Type, Message: msg}
}
