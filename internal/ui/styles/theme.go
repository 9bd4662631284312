// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the comparison view.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// MODEL COLUMN STYLES
	// ==========================================================================

	Column        lipgloss.Style
	ColumnFocused lipgloss.Style
	ColumnTitle   lipgloss.Style
	ColumnBody    lipgloss.Style

	// ==========================================================================
	// PHASE BADGE STYLES
	// ==========================================================================

	BadgePending   lipgloss.Style
	BadgeStreaming lipgloss.Style
	BadgeSuccess   lipgloss.Style
	BadgeError     lipgloss.Style
	BadgeTimeout   lipgloss.Style

	// ==========================================================================
	// PROMPT AND INPUT STYLES
	// ==========================================================================

	Prompt           lipgloss.Style
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	Summary      lipgloss.Style
	SummaryError lipgloss.Style
	Spinner      lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	CreditsWarn  lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	hasTrueColor := colorProfile == termenv.TrueColor
	isDark := termenv.HasDarkBackground()

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: hasTrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	// Model columns
	t.Column = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.ColumnFocused = t.Column.
		BorderForeground(Cyan)

	t.ColumnTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.ColumnBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Phase badges
	t.BadgePending = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.BadgeStreaming = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.BadgeSuccess = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.BadgeError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.BadgeTimeout = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Prompt and input
	t.Prompt = lipgloss.NewStyle().
		Foreground(PromptFg).
		Background(PromptBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(PromptBorder).
		Padding(0, 2)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Summary = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SummaryError = lipgloss.NewStyle().
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.CreditsWarn = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}

// SetSize updates the theme's layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode describes how model columns should be arranged.
type LayoutMode int

const (
	// LayoutStacked renders one column per row (narrow terminals)
	LayoutStacked LayoutMode = iota
	// LayoutColumns renders models side by side
	LayoutColumns
)

// GetLayoutMode returns the layout mode for the current width and the
// number of models being compared.
func (t *Theme) GetLayoutMode(modelCount int) LayoutMode {
	if modelCount <= 1 {
		return LayoutStacked
	}
	// Each column needs a workable minimum width
	if t.Width/modelCount < 40 {
		return LayoutStacked
	}
	return LayoutColumns
}
