// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// sessions_cmd.go - Saved conversation management for the compareintel CLI.
//
// Command: sessions [list|show|search|breakout|delete]
//
// Examples:
//   compareintel sessions                 List saved conversations
//   compareintel sessions show conv_ab12  Print one conversation
//   compareintel sessions search "rust"   Search titles and content
//   compareintel sessions breakout conv_ab12 gpt-4o
//   compareintel sessions delete conv_ab12

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jaydeelew/compareintel-tui/internal/config"
	"github.com/jaydeelew/compareintel-tui/internal/model"
	"github.com/jaydeelew/compareintel-tui/internal/storage"
	"github.com/jaydeelew/compareintel-tui/internal/util"
)

// HandleSessions dispatches the sessions subcommands.
func HandleSessions(cfg *config.Config, args Args) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args.Subcommand {
	case "", "list":
		return sessionsList(ctx, store, args)
	case "show":
		return sessionsShow(ctx, store, args)
	case "search":
		return sessionsSearch(ctx, store, args)
	case "breakout":
		return sessionsBreakout(ctx, store, args)
	case "delete", "rm":
		return sessionsDelete(ctx, store, args)
	default:
		return fmt.Errorf("unknown sessions subcommand %q (want list, show, search, breakout, or delete)", args.Subcommand)
	}
}

// sessionsList prints a table of saved conversations.
func sessionsList(ctx context.Context, store storage.Store, args Args) error {
	metas, err := store.List(ctx)
	if err != nil {
		return err
	}
	if args.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(metas)
	}
	if len(metas) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}

	printMetas(metas)
	return nil
}

func printMetas(metas []model.ComparisonMeta) {
	fmt.Printf("%-14s %-20s %-8s %-8s %s\n", "ID", "UPDATED", "ROUNDS", "MODELS", "TITLE")
	for _, meta := range metas {
		fmt.Printf("%-14s %-20s %-8d %-8d %s\n",
			meta.ID,
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			meta.RoundCount,
			len(meta.Models),
			util.TruncateRunes(meta.Title, 50))
	}
}

// sessionsShow prints one conversation round by round.
func sessionsShow(ctx context.Context, store storage.Store, args Args) error {
	id := firstRemaining(args)
	if id == "" {
		return fmt.Errorf("usage: sessions show <id>")
	}

	conv, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("conversation %s not found", id)
		}
		return err
	}

	if args.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(conv.Flatten())
	}

	fmt.Print(renderConversation(conv))
	return nil
}

// renderConversation formats one conversation round by round. Failure
// detection re-runs at display time: a participant that never answered, or
// whose latest answer reads like an error, is reported even when the
// stored messages carry no explicit failure flag.
func renderConversation(conv *model.Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  (%s)\n", conv.Title, conv.ID)
	for i, round := range conv.Rounds {
		if round.User != nil {
			fmt.Fprintf(&b, "\n[%d] You: %s\n", i+1, round.User.Content)
		}
		for _, name := range conv.Models {
			msg, ok := round.Assistants[name]
			if !ok {
				continue
			}
			marker := ""
			if msg.Failed {
				marker = " [failed]"
			}
			fmt.Fprintf(&b, "\n--- %s%s ---\n%s\n", name, marker, msg.Content)
		}
	}
	if failed := conv.FailedModels(); len(failed) > 0 {
		fmt.Fprintf(&b, "\nFailed models: %s\n", strings.Join(failed, ", "))
	}
	return b.String()
}

// sessionsBreakout narrows a saved conversation to a single model, storing
// the result as a new conversation. The original is left untouched.
func sessionsBreakout(ctx context.Context, store storage.Store, args Args) error {
	if len(args.Remaining) < 2 {
		return fmt.Errorf("usage: sessions breakout <id> <model>")
	}
	id, target := args.Remaining[0], args.Remaining[1]

	conv, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("conversation %s not found", id)
		}
		return err
	}
	if !containsModel(conv.Models, target) {
		return fmt.Errorf("model %q is not part of %s (models: %s)",
			target, id, strings.Join(conv.Models, ", "))
	}

	breakout := conv.Breakout(target)
	newID, err := store.Save(ctx, breakout)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s: continuing with %s\n", newID, target)
	return nil
}

// sessionsSearch finds conversations by title or content. Only the local
// store supports search.
func sessionsSearch(ctx context.Context, store storage.Store, args Args) error {
	query := firstRemaining(args)
	if query == "" {
		return fmt.Errorf("usage: sessions search <query>")
	}

	searcher, ok := store.(interface {
		Search(ctx context.Context, query string) ([]model.ComparisonMeta, error)
	})
	if !ok {
		return fmt.Errorf("search is only available with local storage")
	}

	metas, err := searcher.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	printMetas(metas)
	return nil
}

// sessionsDelete removes a conversation.
func sessionsDelete(ctx context.Context, store storage.Store, args Args) error {
	id := firstRemaining(args)
	if id == "" {
		return fmt.Errorf("usage: sessions delete <id>")
	}
	if err := store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("conversation %s not found", id)
		}
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func firstRemaining(args Args) string {
	if len(args.Remaining) == 0 {
		return ""
	}
	return args.Remaining[0]
}
