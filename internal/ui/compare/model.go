// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare provides the side-by-side comparison view for the TUI.
package compare

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaydeelew/compareintel-tui/internal/client"
	core "github.com/jaydeelew/compareintel-tui/internal/compare"
	"github.com/jaydeelew/compareintel-tui/internal/config"
	"github.com/jaydeelew/compareintel-tui/internal/model"
	"github.com/jaydeelew/compareintel-tui/internal/storage"
	"github.com/jaydeelew/compareintel-tui/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// State represents the current state of the comparison view.
type State int

const (
	StateReady     State = iota // Ready for a follow-up
	StateStreaming              // Receiving the multiplexed stream
)

// =============================================================================
// COMPARISON MODEL
// =============================================================================

// column holds the per-model display state alongside the core run state.
type column struct {
	model    string
	viewport viewport.Model
	// rawOverride pins the column to the raw stream view even after the
	// model completes and would normally switch to formatted markdown
	rawOverride bool
}

// Model is the Bubble Tea model for the comparison view.
type Model struct {
	// State
	state    State
	quitting bool

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Configuration
	cfg *config.Config

	// Conversation being built
	comparison *model.Comparison
	reconciler *model.Reconciler

	// Current streaming operation
	op      *core.Operation
	runner  *client.Runner
	pending string // Prompt submitted but not yet streamed

	// Persistence
	store   storage.Store
	savedID string

	// Rendering
	markdown *MarkdownRenderer
	throttle *RenderThrottle

	// UI components
	columns  []column
	focusIdx int
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Status
	summary   string
	statusMsg string
	showHelp  bool
}

// New creates a comparison model and begins streaming the initial prompt.
func New(theme *styles.Theme, cfg *config.Config, runner *client.Runner, store storage.Store, models []string, prompt string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Follow-up for all models..."
	ti.CharLimit = 8192

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	reconciler := model.NewReconciler()

	m := Model{
		state:      StateStreaming,
		theme:      theme,
		cfg:        cfg,
		comparison: reconciler.BeginComparison(models, prompt),
		reconciler: reconciler,
		runner:     runner,
		pending:    prompt,
		store:      store,
		markdown:   NewMarkdownRenderer(80),
		throttle:   NewRenderThrottle(30),
		input:      ti,
		spinner:    sp,
		keyMap:     DefaultKeyMap(),
	}

	m.columns = make([]column, len(models))
	for i, name := range models {
		vp := viewport.New(40, 10)
		m.columns[i] = column{model: name, viewport: vp}
	}

	m.op = m.newOperation(models)
	return m
}

// newOperation builds an operation whose format hook wakes the repaint loop
// so the raw-to-formatted switch shows up promptly.
func (m *Model) newOperation(models []string) *core.Operation {
	op := core.NewOperation(models)
	throttle := m.throttle
	op.SetFormatHook(func(string) { throttle.Mark() })
	return op
}

// Init starts the spinner, the render loop, and the initial stream.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.renderTick(),
		m.startRun(m.pending, nil, ""),
	)
}

// =============================================================================
// STREAMING COMMANDS
// =============================================================================

// startRun launches the streaming run in a goroutine. The per-frame
// callback only marks the throttle; the render loop pulls fresh snapshots
// at a capped rate.
func (m Model) startRun(prompt string, history []model.HistoryEntry, conversationID string) tea.Cmd {
	req := client.NewCompareRequest(prompt, m.modelNames())
	req.WebSearch = m.cfg.Compare.WebSearch
	if len(history) > 0 {
		req = req.WithHistory(conversationID, history)
	}

	runner := m.runner
	op := m.op
	throttle := m.throttle
	return func() tea.Msg {
		res := runner.Run(context.Background(), req, op, throttle.Mark)
		return RunFinishedMsg{Result: res}
	}
}

// renderTick schedules the next repaint check.
func (m Model) renderTick() tea.Cmd {
	return tea.Tick(m.throttle.Interval(), func(time.Time) tea.Msg {
		return RenderTickMsg{}
	})
}

// saveCmd persists the conversation in the background.
func (m Model) saveCmd() tea.Cmd {
	store := m.store
	conv := m.comparison
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		id, err := store.Save(ctx, conv)
		return SavedMsg{ID: id, Err: err}
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// modelNames returns the models in display order.
func (m Model) modelNames() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.model
	}
	return names
}

// GetState returns the current view state.
func (m *Model) GetState() State {
	return m.state
}

// GetComparison returns the conversation being built.
func (m *Model) GetComparison() *model.Comparison {
	return m.comparison
}

// IsStreaming reports whether a run is in flight.
func (m *Model) IsStreaming() bool {
	return m.state == StateStreaming
}
