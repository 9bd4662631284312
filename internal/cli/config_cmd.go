// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// config_cmd.go - Configuration command for the compareintel CLI.
//
// Command: config [show|set|path]
//
// Examples:
//   compareintel config                        Show effective configuration
//   compareintel config set backend.base_url http://localhost:9090
//   compareintel config path                   Print config file location

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jaydeelew/compareintel-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(cfg *config.Config, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(cfg)
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "set":
		if len(args.Remaining) < 2 {
			return fmt.Errorf("usage: config set <key> <value>")
		}
		return configSet(cfg, args.Remaining[0], args.Remaining[1])
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, set, or path)", args.Subcommand)
	}
}

// configShow prints the effective configuration. The API key is masked.
func configShow(cfg *config.Config) error {
	key := cfg.Backend.APIKey
	if len(key) > 8 {
		key = key[:4] + "..." + key[len(key)-4:]
	}

	fmt.Println("[backend]")
	fmt.Printf("  base_url             = %s\n", cfg.Backend.BaseURL)
	fmt.Printf("  api_key              = %s\n", key)
	fmt.Printf("  request_timeout_secs = %d\n", cfg.Backend.RequestTimeoutSecs)
	fmt.Println("[compare]")
	fmt.Printf("  default_models            = %s\n", strings.Join(cfg.Compare.DefaultModels, ", "))
	fmt.Printf("  inactivity_threshold_secs = %d\n", cfg.Compare.InactivityThresholdSecs)
	fmt.Printf("  web_search                = %t\n", cfg.Compare.WebSearch)
	fmt.Println("[storage]")
	fmt.Printf("  backend           = %s\n", cfg.Storage.Backend)
	fmt.Printf("  max_conversations = %d\n", cfg.Storage.MaxConversations)
	fmt.Println("[ui]")
	fmt.Printf("  theme            = %s\n", cfg.UI.Theme)
	fmt.Printf("  formatted_output = %t\n", cfg.UI.FormattedOutput)
	return nil
}

// configSet updates one key and writes the file back.
func configSet(cfg *config.Config, key, value string) error {
	switch key {
	case "backend.base_url":
		cfg.Backend.BaseURL = value
	case "backend.api_key":
		cfg.Backend.APIKey = value
	case "backend.request_timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Backend.RequestTimeoutSecs = n
	case "compare.default_models":
		var models []string
		for _, m := range strings.Split(value, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		cfg.Compare.DefaultModels = models
	case "compare.inactivity_threshold_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Compare.InactivityThresholdSecs = n
	case "compare.web_search":
		cfg.Compare.WebSearch = value == "true" || value == "1"
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.max_conversations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Storage.MaxConversations = n
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.formatted_output":
		cfg.UI.FormattedOutput = value == "true" || value == "1"
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}
