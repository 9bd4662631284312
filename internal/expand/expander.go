// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package expand resolves file placeholders in prompt text.
package expand

import (
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is one already-extracted document: name plus plain text.
// Extraction (PDF, DOCX, ...) happens upstream; the expander only ever
// deals in text.
type Attachment struct {
	Name string
	Text string
}

// =============================================================================
// EXPANDER
// =============================================================================

// Expander turns prompt text with file placeholders into the plain text the
// comparison request carries. The core calls Expand before building any
// request; nothing downstream knows attachments existed.
type Expander interface {
	Expand(text string, attachments []Attachment) string
}

// placeholderPattern matches inline references like [file: report.pdf].
var placeholderPattern = regexp.MustCompile(`\[file:\s*([^\]]+)\]`)

// TextExpander is the default Expander: placeholders are replaced inline
// with the attachment's content; attachments never referenced are appended
// as trailing context blocks so their text still reaches the models.
type TextExpander struct {
	// MaxAttachmentChars truncates oversized attachments (0 = unlimited).
	MaxAttachmentChars int
}

// NewTextExpander creates an expander with a sane size cap.
func NewTextExpander() *TextExpander {
	return &TextExpander{MaxAttachmentChars: 100000}
}

// Expand implements Expander.
func (e *TextExpander) Expand(text string, attachments []Attachment) string {
	if len(attachments) == 0 {
		return text
	}

	byName := make(map[string]Attachment, len(attachments))
	for _, a := range attachments {
		byName[a.Name] = a
	}

	used := make(map[string]bool)
	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(placeholderPattern.FindStringSubmatch(match)[1])
		a, ok := byName[name]
		if !ok {
			return match // Unknown placeholder stays visible
		}
		used[name] = true
		return e.block(a)
	})

	// Unreferenced attachments trail the prompt as context.
	var extra strings.Builder
	for _, a := range attachments {
		if !used[a.Name] {
			extra.WriteString("\n\n")
			extra.WriteString(e.block(a))
		}
	}

	return out + extra.String()
}

// block formats one attachment as a fenced context block.
func (e *TextExpander) block(a Attachment) string {
	text := a.Text
	if e.MaxAttachmentChars > 0 && len(text) > e.MaxAttachmentChars {
		text = text[:e.MaxAttachmentChars] + "\n[truncated]"
	}
	return fmt.Sprintf("--- %s ---\n%s\n--- end %s ---", a.Name, text, a.Name)
}
