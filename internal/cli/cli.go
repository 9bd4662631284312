// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// cli.go - Command parsing and dispatch for compareintel.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jaydeelew/compareintel-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdCompare  Command = iota // Run a comparison (TUI or plain)
	CmdSessions                // Saved conversation management
	CmdExport                  // Export a conversation to a file
	CmdConfig                  // Configuration management
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet bool
	Plain bool // Force plain streaming output instead of the TUI

	// Comparison
	Prompt    string
	Models    []string
	WebSearch bool
	Files     []string // Attachment paths expanded into the prompt

	// Command-specific
	Subcommand string
	Remaining  []string
	Output     string
	Format     string
}

const usageText = `compareintel - compare AI models side by side

Submit one prompt to several models at once and watch every answer
stream in a single view. Follow up with all models, or break out with
the one that gave the best answer.

Usage:
  compareintel "prompt" -m model-a,model-b     Compare models (TUI)
  compareintel --plain "prompt" -m ...         Plain streaming output
  compareintel sessions [list|show|search|breakout|delete]  Saved conversations
  compareintel export <id> [-o FILE] [--format md|json]  Export a conversation
  compareintel config [show|set|path]          Configuration
  compareintel version                         Show version
  compareintel help                            Show this help

Flags:
  -m, --models LIST   Comma-separated models to compare
  -f, --file PATH     Attach a file's text to the prompt (repeatable via [file: name])
  --web-search        Let the backend augment prompts with web search
  --plain             Stream to stdout without the TUI
  -q, --quiet         Minimal output

Environment:
  COMPAREINTEL_BASE_URL   Backend URL
  COMPAREINTEL_API_KEY    API key
  COMPAREINTEL_MODELS     Default model list

Config file: ~/.compareintel/config.toml`

// Parse parses raw command-line arguments into a command and Args.
func Parse(raw []string) (Command, Args) {
	args := Args{}

	if len(raw) == 0 {
		return CmdHelp, args
	}

	switch raw[0] {
	case "help", "--help", "-h":
		return CmdHelp, args
	case "version", "--version":
		return CmdVersion, args
	case "sessions", "session":
		p := NewArgParser(raw[1:])
		args.Subcommand = p.Subcommand()
		args.Remaining = p.PositionalFrom(1)
		args.Format = p.FlagOrDefault("format", "")
		args.Quiet = p.BoolFlag("quiet") || p.BoolFlag("q")
		return CmdSessions, args
	case "export":
		p := NewArgParser(raw[1:])
		args.Subcommand = p.Positional(0)
		args.Output = p.FlagOrDefault("output", p.Flag("o"))
		args.Format = p.FlagOrDefault("format", "md")
		return CmdExport, args
	case "config":
		p := NewArgParser(raw[1:])
		args.Subcommand = p.Subcommand()
		args.Remaining = p.PositionalFrom(1)
		return CmdConfig, args
	}

	// Everything else is a comparison prompt
	p := NewArgParser(raw)
	args.Plain = p.BoolFlag("plain")
	args.Quiet = p.BoolFlag("quiet") || p.BoolFlag("q")
	args.WebSearch = p.BoolFlag("web-search")
	args.Prompt = p.JoinPositionalFrom(0)
	if m := p.FlagOrDefault("models", p.Flag("m")); m != "" {
		for _, name := range strings.Split(m, ",") {
			if name = strings.TrimSpace(name); name != "" {
				args.Models = append(args.Models, name)
			}
		}
	}
	if f := p.FlagOrDefault("file", p.Flag("f")); f != "" {
		args.Files = append(args.Files, f)
	}
	return CmdCompare, args
}

// Run dispatches a parsed command. It returns the process exit code.
func Run(raw []string) int {
	cmd, args := Parse(raw)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var runErr error
	switch cmd {
	case CmdCompare:
		runErr = HandleCompare(cfg, args)
	case CmdSessions:
		runErr = HandleSessions(cfg, args)
	case CmdExport:
		runErr = HandleExport(cfg, args)
	case CmdConfig:
		runErr = HandleConfig(cfg, args)
	case CmdVersion:
		fmt.Printf("compareintel %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case CmdHelp:
		fmt.Println(usageText)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}
