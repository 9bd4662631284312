// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/compare"
)

// sseServer returns a test backend whose /api/compare handler is driven by
// the given script function.
func sseServer(t *testing.T, script func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/compare" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		script(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sendEvent(w http.ResponseWriter, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func newTestRunner(srv *httptest.Server) *Runner {
	return NewRunner(New(&Config{BaseURL: srv.URL, Timeout: 5 * time.Second}))
}

func TestRunner_SuccessfulRun(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		sendEvent(w, `{"type":"start","model":"a"}`)
		sendEvent(w, `{"type":"chunk","model":"a","content":"hello "}`)
		sendEvent(w, `{"type":"chunk","model":"a","content":"world"}`)
		sendEvent(w, `{"type":"done","model":"a"}`)
		sendEvent(w, `{"type":"complete","metadata":{"models_requested":1,"models_succeeded":1,"credits_remaining":9.5}}`)
	})

	runner := newTestRunner(srv)
	op := compare.NewOperation([]string{"a"})

	events := 0
	res := runner.Run(context.Background(), NewCompareRequest("q", []string{"a"}), op, func() { events++ })

	if res.Cause != compare.EndNormal {
		t.Fatalf("Cause = %v, want %v (err: %v)", res.Cause, compare.EndNormal, res.Err)
	}
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}

	s, _ := op.State("a")
	if s.Phase != compare.PhaseCompletedSuccess {
		t.Errorf("Phase = %v, want %v", s.Phase, compare.PhaseCompletedSuccess)
	}
	if s.Text != "hello world" {
		t.Errorf("Text = %q, want %q", s.Text, "hello world")
	}
	if md := op.Metadata(); md == nil || md.CreditsRemaining != 9.5 {
		t.Errorf("Metadata = %+v, want credits 9.5", md)
	}
	if events == 0 {
		t.Error("onEvent never invoked")
	}
	if !op.Ended() {
		t.Error("operation not ended after Run returned")
	}
}

func TestRunner_InactivityTimeout(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		sendEvent(w, `{"type":"start","model":"a"}`)
		sendEvent(w, `{"type":"chunk","model":"a","content":"partial"}`)
		// Stall until the client gives up.
		<-r.Context().Done()
	})

	runner := newTestRunner(srv)
	runner.InactivityThreshold = 100 * time.Millisecond
	runner.ActiveWindow = 50 * time.Millisecond
	op := compare.NewOperation([]string{"a"})

	start := time.Now()
	res := runner.Run(context.Background(), NewCompareRequest("q", []string{"a"}), op, nil)

	if res.Cause != compare.EndTimeout {
		t.Fatalf("Cause = %v, want %v", res.Cause, compare.EndTimeout)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run took %v, watchdog should have fired within the threshold", elapsed)
	}

	s, _ := op.State("a")
	if s.Phase != compare.PhaseTimedOut {
		t.Errorf("Phase = %v, want %v", s.Phase, compare.PhaseTimedOut)
	}
	if s.Text != "partial" {
		t.Errorf("Text = %q, partial output must survive the timeout", s.Text)
	}
}

func TestRunner_UserCancel(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		sendEvent(w, `{"type":"start","model":"a"}`)
		<-r.Context().Done()
	})

	runner := newTestRunner(srv)
	op := compare.NewOperation([]string{"a"})

	go func() {
		time.Sleep(100 * time.Millisecond)
		runner.Cancel()
	}()
	res := runner.Run(context.Background(), NewCompareRequest("q", []string{"a"}), op, nil)

	if res.Cause != compare.EndCancelled {
		t.Fatalf("Cause = %v, want %v", res.Cause, compare.EndCancelled)
	}
	s, _ := op.State("a")
	if s.Reason != compare.ReasonCancelled {
		t.Errorf("Reason = %v, want %v", s.Reason, compare.ReasonCancelled)
	}
}

func TestRunner_ParentContextCancelTreatedAsUser(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		sendEvent(w, `{"type":"start","model":"a"}`)
		<-r.Context().Done()
	})

	runner := newTestRunner(srv)
	op := compare.NewOperation([]string{"a"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	res := runner.Run(ctx, NewCompareRequest("q", []string{"a"}), op, nil)

	if res.Cause != compare.EndCancelled {
		t.Errorf("Cause = %v, want %v", res.Cause, compare.EndCancelled)
	}
}

func TestRunner_StreamErrorFrame(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		sendEvent(w, `{"type":"start","model":"a"}`)
		sendEvent(w, `{"type":"start","model":"b"}`)
		sendEvent(w, `{"type":"chunk","model":"a","content":"fine"}`)
		sendEvent(w, `{"type":"done","model":"a"}`)
		sendEvent(w, `{"type":"error","message":"backend gave up"}`)
	})

	runner := newTestRunner(srv)
	op := compare.NewOperation([]string{"a", "b"})

	res := runner.Run(context.Background(), NewCompareRequest("q", []string{"a", "b"}), op, nil)

	// The error frame is in-band; the stream itself closed cleanly.
	if res.Cause != compare.EndNormal {
		t.Fatalf("Cause = %v, want %v", res.Cause, compare.EndNormal)
	}
	if op.StreamError() != "backend gave up" {
		t.Errorf("StreamError = %q, want the error frame message", op.StreamError())
	}

	a, _ := op.State("a")
	if a.Phase != compare.PhaseCompletedSuccess {
		t.Errorf("a.Phase = %v, prior success must be preserved", a.Phase)
	}
	b, _ := op.State("b")
	if b.Reason != compare.ReasonStreamError {
		t.Errorf("b.Reason = %v, want %v", b.Reason, compare.ReasonStreamError)
	}
}

func TestRunner_OpenStreamFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr *ClientError
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, ErrUnauthorized},
		{"payment required", http.StatusPaymentRequired, `{"error":"out of credits"}`, ErrInsufficientCredits},
		{"bad request", http.StatusBadRequest, `{"error":"unknown model"}`, ErrBadRequest},
		{"server error", http.StatusInternalServerError, "", ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			runner := newTestRunner(srv)
			op := compare.NewOperation([]string{"a"})

			res := runner.Run(context.Background(), NewCompareRequest("q", []string{"a"}), op, nil)

			if res.Cause != compare.EndTransportError {
				t.Fatalf("Cause = %v, want %v", res.Cause, compare.EndTransportError)
			}
			if !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
			}

			s, _ := op.State("a")
			if s.Reason != compare.ReasonStreamEnded {
				t.Errorf("Reason = %v, want %v", s.Reason, compare.ReasonStreamEnded)
			}
		})
	}
}

func TestRunner_UnreachableBackend(t *testing.T) {
	runner := NewRunner(New(&Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}))
	op := compare.NewOperation([]string{"a"})

	res := runner.Run(context.Background(), NewCompareRequest("q", []string{"a"}), op, nil)

	if res.Cause != compare.EndTransportError {
		t.Fatalf("Cause = %v, want %v", res.Cause, compare.EndTransportError)
	}
	if !errors.Is(res.Err, ErrConnection) {
		t.Errorf("Err = %v, want %v", res.Err, ErrConnection)
	}
}
