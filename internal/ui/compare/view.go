// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package compare provides the side-by-side comparison view for the TUI.
//
// This file contains the rendering logic: the header, the per-model
// columns with phase badges, the follow-up input, and the status bar.
package compare

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	core "github.com/jaydeelew/compareintel-tui/internal/compare"
	"github.com/jaydeelew/compareintel-tui/internal/ui/styles"
	"github.com/jaydeelew/compareintel-tui/internal/util"
)

// View renders the complete comparison view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	body := m.renderColumns()
	input := m.renderInput()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("CompareIntel")
	prompt := ""
	if last := m.lastPrompt(); last != "" {
		avail := m.width - lipgloss.Width(title) - 4
		prompt = m.theme.Header.Render(util.TruncateWidth(last, avail))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", prompt)
}

// lastPrompt returns the user prompt of the newest round.
func (m Model) lastPrompt() string {
	rounds := m.comparison.Rounds
	if len(rounds) == 0 || rounds[len(rounds)-1].User == nil {
		return ""
	}
	return rounds[len(rounds)-1].User.Content
}

// =============================================================================
// MODEL COLUMNS
// =============================================================================

func (m Model) renderColumns() string {
	rendered := make([]string, len(m.columns))
	snaps := m.op.Snapshot()
	byModel := make(map[string]core.RunSnapshot, len(snaps))
	for _, s := range snaps {
		byModel[s.Model] = s
	}

	for i, col := range m.columns {
		style := m.theme.Column
		if i == m.focusIdx && len(m.columns) > 1 {
			style = m.theme.ColumnFocused
		}

		titleLine := m.renderColumnTitle(col, byModel[col.model])
		body := col.viewport.View()
		rendered[i] = style.Render(lipgloss.JoinVertical(lipgloss.Left, titleLine, body))
	}

	if m.theme.GetLayoutMode(len(m.columns)) == styles.LayoutColumns {
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m Model) renderColumnTitle(col column, snap core.RunSnapshot) string {
	name := m.theme.ColumnTitle.Render(util.TruncateWidth(col.model, col.viewport.Width-14))
	badge := m.renderBadge(snap)
	return name + " " + badge
}

// renderBadge renders the phase indicator for one model.
func (m Model) renderBadge(snap core.RunSnapshot) string {
	switch snap.Phase {
	case core.PhaseStreaming:
		return m.theme.BadgeStreaming.Render(m.spinner.View() + " streaming")
	case core.PhaseCompletedSuccess:
		return m.theme.BadgeSuccess.Render("done")
	case core.PhaseCompletedError:
		if snap.Reason == core.ReasonCancelled {
			return m.theme.BadgeError.Render("cancelled")
		}
		return m.theme.BadgeError.Render("error")
	case core.PhaseTimedOut:
		return m.theme.BadgeTimeout.Render("timed out")
	default:
		return m.theme.BadgePending.Render("pending")
	}
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	if m.state == StateStreaming {
		waiting := m.theme.InputPlaceholder.Render("Streaming... Esc to cancel")
		return m.theme.InputContainer.Width(m.width - 2).Render(waiting)
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.statusMsg != "":
		left = m.theme.SummaryError.Render(m.statusMsg)
	case m.summary != "":
		left = m.theme.Summary.Render(m.summary)
	case m.state == StateStreaming:
		left = m.theme.Summary.Render("Comparing...")
	}

	var parts []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		parts = append(parts,
			m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(parts, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, bind := range []struct{ k, d string }{
		{"Enter", "send follow-up to all models"},
		{"Tab / Shift+Tab", "focus next / previous model"},
		{"Up/Down, PgUp/PgDn", "scroll focused column"},
		{"Ctrl+R", "toggle raw / formatted view"},
		{"Ctrl+B", "breakout with focused model"},
		{"Esc", "cancel streaming"},
		{"Ctrl+Q", "quit"},
		{"?", "toggle this help"},
	} {
		fmt.Fprintf(&b, "  %s  %s\n",
			m.theme.ShortcutKey.Render(util.PadRight(bind.k, 20)),
			m.theme.ShortcutDesc.Render(bind.d))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Press any key to close"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}
