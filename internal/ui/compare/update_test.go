// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package compare

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"

	core "github.com/jaydeelew/compareintel-tui/internal/compare"
	"github.com/jaydeelew/compareintel-tui/internal/model"
	"github.com/jaydeelew/compareintel-tui/internal/stream"
)

// finishedModel builds the minimal view state handleRunFinished needs.
func finishedModel(models []string, op *core.Operation) Model {
	rec := model.NewReconciler()
	return Model{
		state:      StateStreaming,
		reconciler: rec,
		comparison: rec.BeginComparison(models, "q"),
		op:         op,
		throttle:   NewRenderThrottle(30),
		markdown:   NewMarkdownRenderer(40),
		input:      textinput.New(),
	}
}

func TestHandleRunFinished_SurfacesStreamError(t *testing.T) {
	op := core.NewOperation([]string{"a", "b"})
	op.Apply(&stream.Frame{Kind: stream.KindStart, Model: "a"})
	op.Apply(&stream.Frame{Kind: stream.KindChunk, Model: "a", Content: "partial answer"})
	op.Apply(&stream.Frame{Kind: stream.KindDone, Model: "a"})
	op.Apply(&stream.Frame{Kind: stream.KindError, Message: "upstream provider unreachable"})
	op.EndStream(core.EndNormal)

	m := finishedModel([]string{"a", "b"}, op)
	updated, _ := m.handleRunFinished(RunFinishedMsg{})
	got := updated.(Model).statusMsg

	if !strings.Contains(got, "upstream provider unreachable") {
		t.Errorf("statusMsg = %q, want the stream error message shown", got)
	}
	if !strings.Contains(got, "partial results saved") {
		t.Errorf("statusMsg = %q, want partial-save banner", got)
	}
}

func TestHandleRunFinished_CleanFinishClearsStatus(t *testing.T) {
	op := core.NewOperation([]string{"a"})
	op.Apply(&stream.Frame{Kind: stream.KindStart, Model: "a"})
	op.Apply(&stream.Frame{Kind: stream.KindChunk, Model: "a", Content: "done deal"})
	op.Apply(&stream.Frame{Kind: stream.KindDone, Model: "a"})
	op.EndStream(core.EndNormal)

	m := finishedModel([]string{"a"}, op)
	updated, _ := m.handleRunFinished(RunFinishedMsg{})

	if got := updated.(Model).statusMsg; got != "" {
		t.Errorf("statusMsg = %q, want empty after clean finish", got)
	}
	if got := updated.(Model).state; got != StateReady {
		t.Errorf("state = %v, want %v", got, StateReady)
	}
}
