// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

package cli

import (
	"testing"
)

func TestArgParser_FlagForms(t *testing.T) {
	p := NewArgParser([]string{"show", "--format=json", "--models", "a,b", "--web-search", "extra"})

	if got := p.Subcommand(); got != "show" {
		t.Errorf("Subcommand = %q, want %q", got, "show")
	}
	if got := p.Flag("format"); got != "json" {
		t.Errorf("Flag(format) = %q, want %q", got, "json")
	}
	if got := p.Flag("models"); got != "a,b" {
		t.Errorf("Flag(models) = %q, want %q", got, "a,b")
	}
	if !p.BoolFlag("web-search") {
		t.Error("BoolFlag(web-search) = false")
	}
	if got := p.Positional(1); got != "extra" {
		t.Errorf("Positional(1) = %q, want %q", got, "extra")
	}
}

func TestArgParser_UnknownFlagIsBoolean(t *testing.T) {
	// An unknown flag must not swallow the following positional.
	p := NewArgParser([]string{"--verbose", "my prompt"})

	if !p.BoolFlag("verbose") {
		t.Error("BoolFlag(verbose) = false")
	}
	if got := p.Positional(0); got != "my prompt" {
		t.Errorf("Positional(0) = %q, want the prompt", got)
	}
}

func TestArgParser_ShortValueFlag(t *testing.T) {
	p := NewArgParser([]string{"-m", "claude-sonnet", "what", "is", "Go"})

	if got := p.Flag("m"); got != "claude-sonnet" {
		t.Errorf("Flag(m) = %q, want %q", got, "claude-sonnet")
	}
	if got := p.JoinPositionalFrom(0); got != "what is Go" {
		t.Errorf("JoinPositionalFrom = %q, want %q", got, "what is Go")
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	p := NewArgParser([]string{"--format=json", "--plain"})

	if !p.HasFlag("format") || !p.HasFlag("plain") {
		t.Error("HasFlag missed a given flag")
	}
	if p.HasFlag("nope") {
		t.Error("HasFlag reported an absent flag")
	}
}

func TestArgParser_PositionalHelpers(t *testing.T) {
	p := NewArgParser([]string{"a", "b", "c"})

	if got := p.PositionalCount(); got != 3 {
		t.Errorf("PositionalCount = %d, want 3", got)
	}
	if got := p.PositionalFrom(1); len(got) != 2 || got[0] != "b" {
		t.Errorf("PositionalFrom(1) = %v, want [b c]", got)
	}
	if got := p.PositionalFrom(5); got != nil {
		t.Errorf("PositionalFrom out of range = %v, want nil", got)
	}
	if got := p.Positional(9); got != "" {
		t.Errorf("Positional out of range = %q, want empty", got)
	}
}

func TestParse_Routing(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want Command
	}{
		{"no args", nil, CmdHelp},
		{"help", []string{"help"}, CmdHelp},
		{"help flag", []string{"--help"}, CmdHelp},
		{"version", []string{"version"}, CmdVersion},
		{"sessions", []string{"sessions", "list"}, CmdSessions},
		{"export", []string{"export", "conv_1"}, CmdExport},
		{"config", []string{"config", "show"}, CmdConfig},
		{"bare prompt", []string{"compare", "these", "things"}, CmdCompare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := Parse(tt.raw)
			if cmd != tt.want {
				t.Errorf("Parse(%v) = %v, want %v", tt.raw, cmd, tt.want)
			}
		})
	}
}

func TestParse_CompareArgs(t *testing.T) {
	cmd, args := Parse([]string{"-m", "claude-sonnet, gpt-4o", "--web-search", "--plain", "-f", "notes.txt", "explain", "channels"})

	if cmd != CmdCompare {
		t.Fatalf("cmd = %v, want %v", cmd, CmdCompare)
	}
	if args.Prompt != "explain channels" {
		t.Errorf("Prompt = %q, want %q", args.Prompt, "explain channels")
	}
	if len(args.Models) != 2 || args.Models[0] != "claude-sonnet" || args.Models[1] != "gpt-4o" {
		t.Errorf("Models = %v, want trimmed pair", args.Models)
	}
	if !args.WebSearch || !args.Plain {
		t.Errorf("flags = {web %v plain %v}, want both true", args.WebSearch, args.Plain)
	}
	if len(args.Files) != 1 || args.Files[0] != "notes.txt" {
		t.Errorf("Files = %v, want [notes.txt]", args.Files)
	}
}

func TestParse_SessionsArgs(t *testing.T) {
	cmd, args := Parse([]string{"sessions", "show", "conv_42", "--format=json"})

	if cmd != CmdSessions {
		t.Fatalf("cmd = %v, want %v", cmd, CmdSessions)
	}
	if args.Subcommand != "show" {
		t.Errorf("Subcommand = %q, want %q", args.Subcommand, "show")
	}
	if len(args.Remaining) != 1 || args.Remaining[0] != "conv_42" {
		t.Errorf("Remaining = %v, want [conv_42]", args.Remaining)
	}
	if args.Format != "json" {
		t.Errorf("Format = %q, want json", args.Format)
	}
}

func TestParse_ExportDefaults(t *testing.T) {
	_, args := Parse([]string{"export", "conv_7"})

	if args.Subcommand != "conv_7" {
		t.Errorf("Subcommand = %q, want the conversation id", args.Subcommand)
	}
	if args.Format != "md" {
		t.Errorf("Format = %q, want the md default", args.Format)
	}
}
