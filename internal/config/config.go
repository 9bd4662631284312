// Copyright (c) 2025 Jay DeLew / CompareIntel
// SPDX-License-Identifier: MIT

// Package config provides configuration loading and management for compareintel.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.compareintel/config.toml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete compareintel configuration.
type Config struct {
	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// Compare configuration
	Compare CompareConfig `toml:"compare"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// BackendConfig contains backend connection configuration.
type BackendConfig struct {
	// BaseURL is the URL of the comparison backend
	BaseURL string `toml:"base_url"`
	// APIKey authenticates requests (overridden by COMPAREINTEL_API_KEY)
	APIKey string `toml:"api_key"`
	// RequestTimeoutSecs applies to non-streaming requests
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// CompareConfig contains comparison run configuration.
type CompareConfig struct {
	// DefaultModels are the models compared when none are given on the command line
	DefaultModels []string `toml:"default_models"`
	// InactivityThresholdSecs is how long a model may be silent before timing out
	InactivityThresholdSecs int `toml:"inactivity_threshold_secs"`
	// WebSearch enables the backend's web search augmentation
	WebSearch bool `toml:"web_search"`
}

// StorageConfig contains conversation persistence configuration.
type StorageConfig struct {
	// Backend selects the store: "local" (SQLite) or "remote" (backend API)
	Backend string `toml:"backend"`
	// Path overrides the local database location (empty = default)
	Path string `toml:"path"`
	// MaxConversations caps how many conversations the local store keeps
	MaxConversations int `toml:"max_conversations"`
}

// UIConfig contains interface configuration.
type UIConfig struct {
	// Theme is the color theme name
	Theme string `toml:"theme"`
	// FormattedOutput renders completed model output as markdown
	FormattedOutput bool `toml:"formatted_output"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:            "http://127.0.0.1:8080",
			RequestTimeoutSecs: 30,
		},
		Compare: CompareConfig{
			DefaultModels:           []string{},
			InactivityThresholdSecs: 60,
			WebSearch:               false,
		},
		Storage: StorageConfig{
			Backend:          "local",
			MaxConversations: 200,
		},
		UI: UIConfig{
			Theme:           "default",
			FormattedOutput: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the compareintel configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".compareintel"), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file, applies environment overrides, and
// validates the result. A missing file is not an error: defaults are used.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default location.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies COMPAREINTEL_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("COMPAREINTEL_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("COMPAREINTEL_API_KEY"); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv("COMPAREINTEL_MODELS"); v != "" {
		parts := strings.Split(v, ",")
		models := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				models = append(models, p)
			}
		}
		if len(models) > 0 {
			c.Compare.DefaultModels = models
		}
	}
	if v := os.Getenv("COMPAREINTEL_INACTIVITY_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Compare.InactivityThresholdSecs = secs
		}
	}
	if v := os.Getenv("COMPAREINTEL_WEB_SEARCH"); v != "" {
		c.Compare.WebSearch = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("COMPAREINTEL_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("COMPAREINTEL_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return ValidationError{Field: "backend.base_url", Message: "must not be empty"}
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ValidationError{Field: "backend.base_url", Message: "must be a valid http(s) URL"}
	}
	if c.Backend.RequestTimeoutSecs <= 0 {
		return ValidationError{Field: "backend.request_timeout_secs", Message: "must be positive"}
	}
	if c.Compare.InactivityThresholdSecs <= 0 {
		return ValidationError{Field: "compare.inactivity_threshold_secs", Message: "must be positive"}
	}
	switch c.Storage.Backend {
	case "local", "remote":
	default:
		return ValidationError{Field: "storage.backend", Message: `must be "local" or "remote"`}
	}
	if c.Storage.MaxConversations <= 0 {
		return ValidationError{Field: "storage.max_conversations", Message: "must be positive"}
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RequestTimeout returns the non-streaming request timeout as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutSecs) * time.Second
}

// InactivityThreshold returns the model inactivity threshold as a Duration.
func (c *Config) InactivityThreshold() time.Duration {
	return time.Duration(c.Compare.InactivityThresholdSecs) * time.Second
}
