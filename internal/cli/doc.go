// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package cli implements the compareintel command line interface.
//
// The default command runs a comparison: one prompt, several models, one
// multiplexed stream. With a TTY the Bubble Tea side-by-side view takes
// over; with --plain or piped output the stream goes to stdout with
// model markers and a follow-up loop with input history.
//
// Additional commands manage saved conversations (sessions), export them
// to markdown or JSON (export), and read or edit the TOML configuration
// (config).
package cli
