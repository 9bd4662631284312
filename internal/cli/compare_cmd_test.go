// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaydeelew/compareintel-tui/internal/config"
	"github.com/jaydeelew/compareintel-tui/internal/storage"
	"github.com/jaydeelew/compareintel-tui/internal/util"
)

// compareBackend returns a test backend whose /api/compare handler is
// driven by the given script function.
func compareBackend(t *testing.T, script func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
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

func emit(w http.ResponseWriter, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// plainFixture builds a config pointing at the test backend with a local
// store in a temp directory, plus the runner and store built from it.
func plainFixture(t *testing.T, srv *httptest.Server) (*config.Config, *storage.LocalStore) {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL
	cfg.Storage.Backend = "local"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "conv.db")

	store, err := storage.NewLocalStoreAt(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("NewLocalStoreAt failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return cfg, store
}

func TestRunPlainCompare_FailedRoundNotPersisted(t *testing.T) {
	srv := compareBackend(t, func(w http.ResponseWriter, r *http.Request) {
		emit(w, `{"type":"start","model":"a"}`)
		emit(w, `{"type":"done","model":"a","error":true}`)
		emit(w, `{"type":"complete","metadata":{"models_requested":1,"models_failed":1,"credits_remaining":5}}`)
	})
	cfg, store := plainFixture(t, srv)

	var out bytes.Buffer
	if err := runPlainCompare(&out, cfg, newRunner(cfg), store, []string{"a"}, "why", false); err != nil {
		t.Fatalf("runPlainCompare failed: %v", err)
	}

	metas, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("stored conversations = %d, want 0 (round had no usable output)", len(metas))
	}
	if !strings.Contains(out.String(), "Not saved") {
		t.Errorf("output missing not-saved notice:\n%s", out.String())
	}
}

func TestRunPlainCompare_SuccessfulRoundPersisted(t *testing.T) {
	srv := compareBackend(t, func(w http.ResponseWriter, r *http.Request) {
		emit(w, `{"type":"start","model":"a"}`)
		emit(w, `{"type":"chunk","model":"a","content":"channels are typed pipes"}`)
		emit(w, `{"type":"done","model":"a"}`)
		emit(w, `{"type":"complete","metadata":{"models_requested":1,"models_succeeded":1,"credits_remaining":5}}`)
	})
	cfg, store := plainFixture(t, srv)

	var out bytes.Buffer
	if err := runPlainCompare(&out, cfg, newRunner(cfg), store, []string{"a"}, "explain channels", false); err != nil {
		t.Fatalf("runPlainCompare failed: %v", err)
	}

	metas, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("stored conversations = %d, want 1", len(metas))
	}
	if !strings.Contains(out.String(), "channels are typed pipes") {
		t.Errorf("output missing streamed text:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Saved as") {
		t.Errorf("output missing save notice:\n%s", out.String())
	}
}

func TestRunPlainCompare_StreamErrorShown(t *testing.T) {
	srv := compareBackend(t, func(w http.ResponseWriter, r *http.Request) {
		emit(w, `{"type":"start","model":"a"}`)
		emit(w, `{"type":"chunk","model":"a","content":"partial answer"}`)
		emit(w, `{"type":"done","model":"a"}`)
		emit(w, `{"type":"error","message":"upstream provider unreachable"}`)
	})
	cfg, store := plainFixture(t, srv)

	var out bytes.Buffer
	if err := runPlainCompare(&out, cfg, newRunner(cfg), store, []string{"a", "b"}, "why", false); err != nil {
		t.Fatalf("runPlainCompare failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Stream error: upstream provider unreachable") {
		t.Errorf("output missing stream error message:\n%s", got)
	}
	if !strings.Contains(got, "partial results saved") {
		t.Errorf("output missing partial-save banner:\n%s", got)
	}

	// The finished model survived the stream error, so the round persists.
	metas, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("stored conversations = %d, want 1", len(metas))
	}
}

func TestPlainMarker(t *testing.T) {
	line := plainMarker("gpt-4o", 20, false)
	if !strings.HasPrefix(line, "=== gpt-4o ") {
		t.Errorf("marker = %q, want === gpt-4o prefix", line)
	}
	if w := util.StringWidth(line); w != 20 {
		t.Errorf("marker width = %d, want 20", w)
	}

	// Double-width runes still fill to the terminal width.
	wide := plainMarker("日本語", 24, false)
	if w := util.StringWidth(wide); w != 24 {
		t.Errorf("wide marker width = %d, want 24", w)
	}

	// A name longer than the terminal keeps a minimal fill.
	narrow := plainMarker("a-very-long-model-name", 10, false)
	if !strings.HasSuffix(narrow, "===") {
		t.Errorf("narrow marker = %q, want === suffix", narrow)
	}
}
