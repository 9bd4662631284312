// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package styles provides the visual styling system for the compareintel TUI.
//
// The Theme struct holds every lipgloss style the comparison view uses:
// model column frames, phase badges, the prompt bubble, the status bar.
// Colors are adaptive and render sensibly on both light and dark terminals.
package styles
