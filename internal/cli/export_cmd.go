// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// export_cmd.go - Conversation export for the compareintel CLI.
//
// Command: export <id> [-o FILE] [--format md|json]
//
// Markdown export writes each round as the user prompt followed by every
// model's answer under its own heading. JSON export writes the flat
// message list, the same shape the stores persist.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/config"
	"github.com/jaydeelew/compareintel-tui/internal/model"
	"github.com/jaydeelew/compareintel-tui/internal/storage"
	"github.com/jaydeelew/compareintel-tui/internal/util"
)

// HandleExport writes a saved conversation to a file.
func HandleExport(cfg *config.Config, args Args) error {
	id := args.Subcommand
	if id == "" {
		return fmt.Errorf("usage: export <id> [-o FILE] [--format md|json]")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conv, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("conversation %s not found", id)
		}
		return err
	}

	var data []byte
	ext := "md"
	switch args.Format {
	case "", "md", "markdown":
		data = []byte(renderMarkdownExport(conv))
	case "json":
		ext = "json"
		data, err = json.MarshalIndent(conv.Flatten(), "", "  ")
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want md or json)", args.Format)
	}

	out := args.Output
	if out == "" {
		out = fmt.Sprintf("%s.%s", conv.ID, ext)
	}

	if err := util.AtomicWriteFile(out, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", conv.ID, out)
	return nil
}

// renderMarkdownExport formats a conversation as a markdown document.
func renderMarkdownExport(conv *model.Comparison) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	fmt.Fprintf(&b, "Models: %s  \n", strings.Join(conv.Models, ", "))
	fmt.Fprintf(&b, "Created: %s\n", conv.CreatedAt.Format(time.RFC1123))

	for i, round := range conv.Rounds {
		fmt.Fprintf(&b, "\n## Round %d\n", i+1)
		if round.User != nil {
			fmt.Fprintf(&b, "\n**You:** %s\n", round.User.Content)
		}
		for _, name := range conv.Models {
			msg, ok := round.Assistants[name]
			if !ok {
				continue
			}
			heading := name
			if msg.Failed {
				heading += " (failed)"
			}
			fmt.Fprintf(&b, "\n### %s\n\n%s\n", heading, msg.Content)
		}
	}

	return b.String()
}
