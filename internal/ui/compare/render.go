// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package compare

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// MarkdownRenderer renders completed model output as formatted markdown.
// Raw text is shown while a model streams; once the model finishes
// successfully its column switches to the formatted view. Renders are
// cached per content+width since glamour rendering is not cheap.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int

	cacheKey  string
	cacheText string
}

// NewMarkdownRenderer creates a renderer wrapping at the given width.
// Returns a pass-through renderer if glamour initialization fails.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width}
	mr.init()
	return mr
}

func (mr *MarkdownRenderer) init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(mr.width),
	)
	if err != nil {
		mr.renderer = nil
		return
	}
	mr.renderer = r
}

// SetWidth updates the wrap width, rebuilding the underlying renderer.
func (mr *MarkdownRenderer) SetWidth(width int) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if width == mr.width {
		return
	}
	mr.width = width
	mr.cacheKey = ""
	mr.init()
}

// Render returns content formatted for terminal display. The original
// content is returned unchanged if rendering fails.
func (mr *MarkdownRenderer) Render(content string) string {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if mr.renderer == nil || content == "" {
		return content
	}
	if content == mr.cacheKey {
		return mr.cacheText
	}

	rendered, err := mr.renderer.Render(content)
	if err != nil {
		return content
	}

	mr.cacheKey = content
	mr.cacheText = rendered
	return rendered
}
