// compareintel - compare AI models side by side from the terminal.
//
// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"github.com/jaydeelew/compareintel-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
