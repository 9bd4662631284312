// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare provides the side-by-side comparison view for the TUI.
//
// This file contains the Bubble Tea update loop: stream lifecycle
// handling, keyboard dispatch, and layout recalculation.
package compare

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jaydeelew/compareintel-tui/internal/compare"
	"github.com/jaydeelew/compareintel-tui/internal/ui/styles"
)

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RenderTickMsg:
		if m.throttle.Take() {
			m.refreshColumns()
		}
		if m.state == StateStreaming {
			return m, m.renderTick()
		}
		return m, nil

	case RunFinishedMsg:
		return m.handleRunFinished(msg)

	case SavedMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("Save failed: %v", msg.Err)
		} else {
			m.savedID = msg.ID
			m.statusMsg = "Conversation saved"
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

// handleResize recalculates the column layout for the new terminal size.
// Layout: header (1 line) + columns + input (3 lines) + status (1 line).
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.relayout()
	m.refreshColumns()
	return m, nil
}

// relayout resizes the per-model viewports for the current dimensions.
func (m *Model) relayout() {
	if m.width == 0 || m.height == 0 || len(m.columns) == 0 {
		return
	}

	const chromeHeight = 5 // header + input + status + column frame
	bodyHeight := m.height - chromeHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	n := len(m.columns)
	var colWidth, colHeight int
	if m.theme.GetLayoutMode(n) == styles.LayoutColumns {
		colWidth = m.width/n - 4
		colHeight = bodyHeight
	} else {
		colWidth = m.width - 4
		colHeight = bodyHeight/n - 1
	}
	if colWidth < 20 {
		colWidth = 20
	}
	if colHeight < 3 {
		colHeight = 3
	}

	for i := range m.columns {
		m.columns[i].viewport.Width = colWidth
		m.columns[i].viewport.Height = colHeight
	}
	m.markdown.SetWidth(colWidth)
	m.input.Width = m.width - 6
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// refreshColumns re-reads the operation snapshot into the viewports and
// keeps the conversation's streaming placeholders current.
func (m *Model) refreshColumns() {
	snaps := m.op.Snapshot()
	byModel := make(map[string]core.RunSnapshot, len(snaps))
	for _, s := range snaps {
		byModel[s.Model] = s
	}

	for i := range m.columns {
		col := &m.columns[i]
		snap, ok := byModel[col.model]
		if !ok {
			continue
		}

		if m.state == StateStreaming {
			m.reconciler.UpdateStreaming(m.comparison, col.model, snap.Text)
		}

		content := snap.Text
		if snap.FormattedView && !col.rawOverride {
			content = m.markdown.Render(snap.Text)
		}

		atBottom := col.viewport.AtBottom()
		col.viewport.SetContent(content)
		if atBottom {
			col.viewport.GotoBottom()
		}
	}
}

// handleRunFinished reconciles the finished run into the conversation and
// kicks off persistence.
func (m Model) handleRunFinished(msg RunFinishedMsg) (tea.Model, tea.Cmd) {
	// Final flush: the last state always reaches the screen
	m.throttle.Drain()
	m.refreshColumns()

	m.reconciler.Finalize(m.comparison, m.op.Snapshot())
	m.summary = m.op.Summary()
	m.state = StateReady
	m.input.Focus()

	switch {
	case m.op.StreamError() != "":
		m.statusMsg = "Stream error: " + m.op.StreamError()
		if m.op.PersistWorthy() {
			m.statusMsg += " (partial results saved)"
		}
	case msg.Result.Err != nil:
		m.statusMsg = fmt.Sprintf("Stream ended: %v", msg.Result.Err)
	default:
		m.statusMsg = ""
	}
	if md := m.op.Metadata(); md != nil && md.InsufficientCredits && m.statusMsg == "" {
		m.statusMsg = "Insufficient credits: some models may have been skipped"
	}

	var cmds []tea.Cmd
	cmds = append(cmds, m.refreshFinal())
	if m.op.PersistWorthy() {
		cmds = append(cmds, m.saveCmd())
	}
	return m, tea.Batch(cmds...)
}

// refreshFinal repaints once more on the next tick so formatted views
// settle after finalize.
func (m Model) refreshFinal() tea.Cmd {
	m.throttle.Mark()
	return m.renderTick()
}

// =============================================================================
// KEYBOARD HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.state == StateStreaming {
			m.runner.Cancel()
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			m.runner.Cancel()
			m.statusMsg = "Cancelling..."
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		if !m.input.Focused() || m.input.Value() == "" {
			m.showHelp = true
			return m, nil
		}

	case key.Matches(msg, m.keyMap.NextModel):
		m.focusIdx = (m.focusIdx + 1) % len(m.columns)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevModel):
		m.focusIdx = (m.focusIdx - 1 + len(m.columns)) % len(m.columns)
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleView):
		m.columns[m.focusIdx].rawOverride = !m.columns[m.focusIdx].rawOverride
		m.refreshColumns()
		return m, nil

	case key.Matches(msg, m.keyMap.Breakout):
		return m.handleBreakout()

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.Up):
		m.columns[m.focusIdx].viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.columns[m.focusIdx].viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.columns[m.focusIdx].viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.columns[m.focusIdx].viewport.HalfViewDown()
		return m, nil
	}

	// Everything else goes to the follow-up input
	if m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleSubmit sends the follow-up prompt to every model in the comparison.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.state != StateReady {
		return m, nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}

	// History covers only rounds before this follow-up
	history := m.comparison.History()
	m.reconciler.BeginFollowUp(m.comparison, prompt)

	m.op = m.newOperation(m.modelNames())
	m.state = StateStreaming
	m.summary = ""
	m.statusMsg = ""
	m.input.SetValue("")
	m.input.Blur()
	m.refreshColumns()

	return m, tea.Batch(
		m.spinner.Tick,
		m.renderTick(),
		m.startRun(prompt, history, m.comparison.ID),
	)
}

// handleBreakout narrows the conversation to the focused model only.
func (m Model) handleBreakout() (tea.Model, tea.Cmd) {
	if m.state != StateReady || len(m.columns) <= 1 {
		return m, nil
	}

	target := m.columns[m.focusIdx].model
	m.comparison = m.comparison.Breakout(target)
	m.savedID = ""

	kept := m.columns[m.focusIdx]
	kept.rawOverride = false
	m.columns = []column{kept}
	m.focusIdx = 0
	m.relayout()
	m.refreshColumns()

	m.statusMsg = fmt.Sprintf("Breakout: continuing with %s", target)
	m.input.Placeholder = fmt.Sprintf("Message %s...", target)
	return m, nil
}
