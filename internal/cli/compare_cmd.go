// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// compare_cmd.go - Comparison command handler for the compareintel CLI.
//
// Handles the default command which submits one prompt to several models
// and streams every answer. With a TTY the Bubble Tea side-by-side view
// is used; with --plain or piped output the stream goes to stdout with
// model markers.
//
// Examples:
//   compareintel "Explain generics in Go" -m gpt-4o,claude-sonnet
//   compareintel --plain "Compare these" -m a,b > out.txt
//   cat prompt.txt | compareintel --plain -m a,b

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/jaydeelew/compareintel-tui/internal/client"
	"github.com/jaydeelew/compareintel-tui/internal/compare"
	"github.com/jaydeelew/compareintel-tui/internal/config"
	"github.com/jaydeelew/compareintel-tui/internal/expand"
	"github.com/jaydeelew/compareintel-tui/internal/model"
	"github.com/jaydeelew/compareintel-tui/internal/storage"
	comparetui "github.com/jaydeelew/compareintel-tui/internal/ui/compare"
	"github.com/jaydeelew/compareintel-tui/internal/ui/styles"
	"github.com/jaydeelew/compareintel-tui/internal/util"
)

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// HandleCompare runs a comparison from the command line.
func HandleCompare(cfg *config.Config, args Args) error {
	models := args.Models
	if len(models) == 0 {
		models = cfg.Compare.DefaultModels
	}
	if len(models) == 0 {
		return fmt.Errorf("no models given: use -m model-a,model-b or set compare.default_models")
	}

	prompt := strings.TrimSpace(args.Prompt)
	if prompt == "" && !IsTTY() {
		// Piped prompt
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return fmt.Errorf("no prompt given")
	}

	prompt, err := expandFiles(prompt, args.Files)
	if err != nil {
		return err
	}
	if args.WebSearch {
		cfg.Compare.WebSearch = true
	}

	runner := newRunner(cfg)
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Config edits apply to the next round without restarting the session.
	if w := watchConfig(runner, cfg); w != nil {
		defer w.Close()
	}

	if !args.Plain && IsTTY() && IsStdoutTTY() {
		theme := styles.NewTheme()
		m := comparetui.New(theme, cfg, runner, store, models, prompt)
		p := tea.NewProgram(m, tea.WithAltScreen())
		_, err := p.Run()
		return err
	}

	return runPlainCompare(os.Stdout, cfg, runner, store, models, prompt, args.Quiet)
}

// expandFiles reads attachment paths and expands them into the prompt.
func expandFiles(prompt string, paths []string) (string, error) {
	if len(paths) == 0 {
		return prompt, nil
	}
	atts := make([]expand.Attachment, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		atts = append(atts, expand.Attachment{
			Name: filepath.Base(path),
			Text: string(data),
		})
	}
	return expand.NewTextExpander().Expand(prompt, atts), nil
}

// newRunner builds the streaming runner from configuration.
func newRunner(cfg *config.Config) *client.Runner {
	c := client.New(&client.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.RequestTimeout(),
	})
	r := client.NewRunner(c)
	r.InactivityThreshold = cfg.InactivityThreshold()
	return r
}

// watchConfig hot-reloads tunables that are safe to change between rounds.
// Reload failures and watcher setup failures leave the session on the last
// good configuration.
func watchConfig(runner *client.Runner, cfg *config.Config) *config.Watcher {
	path, err := config.ConfigPath()
	if err != nil {
		return nil
	}
	w, err := config.NewWatcher(path, func(fresh *config.Config) {
		runner.InactivityThreshold = fresh.InactivityThreshold()
		cfg.Compare.WebSearch = fresh.Compare.WebSearch
		cfg.Compare.DefaultModels = fresh.Compare.DefaultModels
	})
	if err != nil {
		return nil
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil
	}
	return w
}

// openStore opens the configured conversation store.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Backend == "remote" {
		return storage.NewRemoteStore(cfg.Backend.BaseURL, cfg.Backend.APIKey), nil
	}

	var store *storage.LocalStore
	var err error
	if cfg.Storage.Path != "" {
		store, err = storage.NewLocalStoreAt(cfg.Storage.Path)
	} else {
		store, err = storage.NewLocalStore()
	}
	if err != nil {
		return nil, err
	}
	store.MaxConversations = cfg.Storage.MaxConversations
	return store, nil
}

// =============================================================================
// PLAIN STREAMING MODE
// =============================================================================

// runPlainCompare streams all model output to out with model markers,
// then offers a follow-up loop when running interactively.
//
// A round where no model produced usable output is not persisted: the
// conversation on disk stays at its last good state and the prompt remains
// in input history for a retry.
func runPlainCompare(out io.Writer, cfg *config.Config, runner *client.Runner, store storage.Store, models []string, prompt string, quiet bool) error {
	// Ctrl+C cancels the in-flight stream instead of killing the process
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			runner.Cancel()
		}
	}()

	reconciler := model.NewReconciler()
	conversation := reconciler.BeginComparison(models, prompt)

	op, err := streamPlainRound(out, cfg, runner, reconciler, conversation, models, prompt, "", nil, quiet)
	if err != nil {
		return err
	}
	persistRound(out, store, conversation, op, quiet)

	if !IsTTY() || quiet {
		return nil
	}

	// Follow-up loop
	input := NewInputCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput("> ")
		if err != nil {
			// Ctrl+C or EOF ends the session
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/breakout"):
			target := strings.TrimSpace(strings.TrimPrefix(line, "/breakout"))
			if !containsModel(models, target) {
				fmt.Fprintf(out, "Unknown model %q. Models: %s\n", target, strings.Join(models, ", "))
				continue
			}
			conversation = conversation.Breakout(target)
			models = []string{target}
			fmt.Fprintf(out, "Breakout: continuing with %s\n", target)
			continue
		}

		history := conversation.History()
		reconciler.BeginFollowUp(conversation, line)
		op, err := streamPlainRound(out, cfg, runner, reconciler, conversation, models, line, conversation.ID, history, quiet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		persistRound(out, store, conversation, op, quiet)
	}
}

// persistRound saves the conversation only when the finished round produced
// at least one usable answer. Rounds where every model errored, timed out
// or stayed silent are not counted as an attempt.
func persistRound(out io.Writer, store storage.Store, conversation *model.Comparison, op *compare.Operation, quiet bool) {
	if !op.PersistWorthy() {
		if !quiet {
			fmt.Fprintln(out, "Not saved: no model produced output.")
		}
		return
	}
	saveConversation(out, store, conversation, quiet)
}

// streamPlainRound runs one comparison round, printing chunks as they
// arrive. Output from different models interleaves; a marker line is
// printed whenever the producing model changes. The finished operation is
// returned so the caller can decide whether the round is worth saving.
func streamPlainRound(out io.Writer, cfg *config.Config, runner *client.Runner, reconciler *model.Reconciler, conversation *model.Comparison, models []string, prompt, conversationID string, history []model.HistoryEntry, quiet bool) (*compare.Operation, error) {
	op := compare.NewOperation(models)

	req := client.NewCompareRequest(prompt, models)
	req.WebSearch = cfg.Compare.WebSearch
	if len(history) > 0 {
		req = req.WithHistory(conversationID, history)
	}

	width := GetTerminalWidth()
	color := UseColors()
	printed := make(map[string]int, len(models))
	lastModel := ""
	res := runner.Run(context.Background(), req, op, func() {
		for _, s := range op.Snapshot() {
			if len(s.Text) <= printed[s.Model] {
				continue
			}
			if s.Model != lastModel {
				fmt.Fprintf(out, "\n\n%s\n", plainMarker(s.Model, width, color))
				lastModel = s.Model
			}
			fmt.Fprint(out, s.Text[printed[s.Model]:])
			printed[s.Model] = len(s.Text)
		}
	})

	snaps := op.Snapshot()
	reconciler.Finalize(conversation, snaps)

	fmt.Fprintln(out)
	if se := op.StreamError(); se != "" {
		banner := "Stream error: " + se
		if op.PersistWorthy() {
			banner += " (partial results saved)"
		}
		fmt.Fprintln(out, banner)
	}
	if !quiet {
		fmt.Fprintln(out)
		for _, s := range snaps {
			fmt.Fprintln(out, util.TruncateWidth(fmt.Sprintf("  %-30s %s", s.Model, describeRun(s)), width))
		}
		fmt.Fprintln(out, op.Summary())
		if md := op.Metadata(); md != nil && md.InsufficientCredits {
			fmt.Fprintln(out, "Warning: insufficient credits, some models may have been skipped")
		}
	}

	if res.Cause == compare.EndTransportError && res.Err != nil {
		return op, res.Err
	}
	return op, nil
}

// plainMarker renders the model switch line, filled to the terminal width
// so interleaved output stays scannable.
func plainMarker(name string, width int, color bool) string {
	head := "=== " + name + " "
	fill := width - util.StringWidth(head)
	if fill < 3 {
		fill = 3
	}
	line := head + strings.Repeat("=", fill)
	if color {
		return termenv.String(line).Foreground(termenv.ANSICyan).String()
	}
	return line
}

// describeRun renders one model's terminal phase for the round summary.
func describeRun(s compare.RunSnapshot) string {
	switch s.Phase {
	case compare.PhaseCompletedSuccess:
		if !s.CompletedAt.IsZero() && !s.StartedAt.IsZero() {
			return fmt.Sprintf("ok (%.1fs)", s.CompletedAt.Sub(s.StartedAt).Seconds())
		}
		return "ok"
	case compare.PhaseTimedOut:
		return "timed out after inactivity"
	case compare.PhaseCompletedError:
		if s.Reason == compare.ReasonCancelled {
			return "cancelled"
		}
		return "failed"
	default:
		return "no response"
	}
}

// saveConversation persists the conversation, reporting the ID once.
func saveConversation(out io.Writer, store storage.Store, conversation *model.Comparison, quiet bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	id, err := store.Save(ctx, conversation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: save failed: %v\n", err)
		return
	}
	if !quiet {
		fmt.Fprintf(out, "Saved as %s\n", id)
	}
}

func containsModel(models []string, name string) bool {
	for _, m := range models {
		if m == name {
			return true
		}
	}
	return false
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// InputCLI provides input history and line editing for the follow-up loop.
// Supports arrow keys for history navigation.
type InputCLI struct {
	line        *liner.State
	historyFile string
}

// NewInputCLI creates an InputCLI with persistent history.
func NewInputCLI() *InputCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &InputCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "input_history"),
	}
	c.loadHistory()
	return c
}

func (c *InputCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *InputCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists input history with owner-only permissions.
func (c *InputCLI) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *InputCLI) Close() {
	c.saveHistory()
	c.line.Close()
}
