// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/model"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStoreAt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewLocalStoreAt failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testComparison builds a two-model, one-round comparison.
func testComparison(prompt string) *model.Comparison {
	r := model.NewReconciler()
	c := r.BeginComparison([]string{"a", "b"}, prompt)
	base := time.Now()
	c.LastRound().Assistant("a").Finalize("answer from a", base, false)
	c.LastRound().Assistant("b").Finalize("", base, true)
	return c
}

func TestLocalStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src := testComparison("what is Go")

	id, err := s.Save(ctx, src)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id != src.ID {
		t.Errorf("Save returned %q, want %q", id, src.ID)
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Title != src.GetTitle() {
		t.Errorf("Title = %q, want %q", got.Title, src.GetTitle())
	}
	if got.RoundCount() != 1 {
		t.Fatalf("RoundCount = %d, want 1", got.RoundCount())
	}

	round := got.Rounds[0]
	if round.User.Content != "what is Go" {
		t.Errorf("User.Content = %q, want the prompt", round.User.Content)
	}
	a := round.Assistant("a")
	if a == nil || a.Content != "answer from a" || a.Failed {
		t.Errorf("assistant a = %+v, want successful answer", a)
	}
	b := round.Assistant("b")
	if b == nil || !b.Failed {
		t.Errorf("assistant b = %+v, failure flag must persist", b)
	}
}

func TestLocalStore_SaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testComparison("first save")
	if _, err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A second save of the same conversation must not duplicate messages.
	if _, err := s.Save(ctx, c); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := s.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Flatten()) != len(c.Flatten()) {
		t.Errorf("message count = %d after re-save, want %d",
			len(got.Flatten()), len(c.Flatten()))
	}
}

func TestLocalStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "conv_nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load = %v, want ErrNotFound", err)
	}
}

func TestLocalStore_ListOrderedByRecency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testComparison("older question")
	old.UpdatedAt = time.Now().Add(-time.Hour)
	recent := testComparison("newer question")
	recent.UpdatedAt = time.Now()

	for _, c := range []*model.Comparison{old, recent} {
		if _, err := s.Save(ctx, c); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	metas, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(metas) = %d, want 2", len(metas))
	}
	if metas[0].ID != recent.ID {
		t.Errorf("metas[0].ID = %q, most recent must come first", metas[0].ID)
	}
	if metas[0].RoundCount != 1 {
		t.Errorf("RoundCount = %d, want 1", metas[0].RoundCount)
	}
	if metas[0].Preview != "newer question" {
		t.Errorf("Preview = %q, want the first prompt", metas[0].Preview)
	}
}

func TestLocalStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testComparison("doomed")
	if _, err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestLocalStore_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	kube := testComparison("how do kubernetes operators work")
	other := testComparison("explain monads")
	for _, c := range []*model.Comparison{kube, other} {
		if _, err := s.Save(ctx, c); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	results, err := s.Search(ctx, "Kubernetes")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != kube.ID {
		t.Errorf("Search = %v, want only the kubernetes conversation", results)
	}

	// Empty query falls back to a full listing.
	results, err = s.Search(ctx, "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("empty-query Search = %d results, want 2", len(results))
	}
}

func TestLocalStore_EnforcesConversationLimit(t *testing.T) {
	s := newTestStore(t)
	s.MaxConversations = 3
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		c := testComparison(fmt.Sprintf("question %d", i))
		c.UpdatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		id, err := s.Save(ctx, c)
		if err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	metas, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("len(metas) = %d, want the cap of 3", len(metas))
	}
	// The oldest two should be gone.
	for _, meta := range metas {
		if meta.ID == ids[0] || meta.ID == ids[1] {
			t.Errorf("pruning kept old conversation %s", meta.ID)
		}
	}
}

func TestLocalStore_MultiRoundRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := model.NewReconciler()
	c := r.BeginComparison([]string{"a"}, "round one")
	c.LastRound().Assistant("a").Finalize("first answer", time.Now(), false)
	r.BeginFollowUp(c, "round two")
	c.LastRound().Assistant("a").Finalize("second answer", time.Now().Add(time.Minute), false)

	if _, err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.RoundCount() != 2 {
		t.Fatalf("RoundCount = %d, want 2", got.RoundCount())
	}
	if a := got.Rounds[1].Assistant("a"); a == nil || a.Content != "second answer" {
		t.Errorf("round 2 assistant = %+v, want the second answer", a)
	}
}
