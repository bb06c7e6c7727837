// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for draftpad.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - $DRAFTPAD_CONFIG (explicit path)
//   - ~/.draftpad/config.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete draftpad configuration.
type Config struct {
	Version string `toml:"version"`

	// Server configuration
	Server ServerConfig `toml:"server"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// History configuration
	History HistoryConfig `toml:"history"`
}

// ServerConfig describes the document server to talk to.
type ServerConfig struct {
	// URL is the base address of the document server. Injected into the
	// API client at construction; nothing reads it from a global.
	URL string `toml:"url"`

	// TimeoutSecs bounds non-streaming requests.
	TimeoutSecs int `toml:"timeout_secs"`

	// StreamTimeoutSecs bounds a whole streaming edit exchange.
	// 0 disables the deadline.
	StreamTimeoutSecs int `toml:"stream_timeout_secs"`

	// RateLimitPerSec caps outgoing non-streaming requests.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto".
	Theme string `toml:"theme"`

	// HighlightClearMs is how long the edited-line highlight lingers after
	// a successful session before auto-clearing.
	HighlightClearMs int `toml:"highlight_clear_ms"`

	// MarkdownPreview starts the document pane in rendered-markdown mode.
	MarkdownPreview bool `toml:"markdown_preview"`
}

// HistoryConfig controls chat transcript persistence. Documents themselves
// are never cached locally; only the chat history is.
type HistoryConfig struct {
	// Enabled turns transcript persistence on.
	Enabled bool `toml:"enabled"`

	// Dir overrides the transcript directory (default ~/.draftpad/history).
	Dir string `toml:"dir"`

	// MaxTranscripts limits stored transcripts (0 = unlimited).
	MaxTranscripts int `toml:"max_transcripts"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			URL:               "http://localhost:8000",
			TimeoutSecs:       30,
			StreamTimeoutSecs: 0,
			RateLimitPerSec:   10,
		},
		UI: UIConfig{
			Theme:            "auto",
			HighlightClearMs: 2000,
			MarkdownPreview:  false,
		},
		History: HistoryConfig{
			Enabled:        true,
			MaxTranscripts: 100,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Path returns the config file path, honoring $DRAFTPAD_CONFIG.
func Path() (string, error) {
	if p := os.Getenv("DRAFTPAD_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".draftpad", "config.toml"), nil
}

// Load reads the configuration: defaults, then file, then environment.
// A missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from an explicit path, for tests and the
// hot-reload watcher. Environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("DRAFTPAD_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("DRAFTPAD_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("DRAFTPAD_STREAM_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.StreamTimeoutSecs = n
		}
	}
	if v := os.Getenv("DRAFTPAD_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("DRAFTPAD_HISTORY_DIR"); v != "" {
		c.History.Dir = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validation errors.
var (
	ErrInvalidServerURL = errors.New("invalid server url")
	ErrInvalidTheme     = errors.New("invalid theme")
)

// Validate checks field values and clamps out-of-range numbers.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidServerURL, c.Server.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidServerURL, u.Scheme)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("%w: %q (want dark, light, or auto)", ErrInvalidTheme, c.UI.Theme)
	}

	if c.Server.TimeoutSecs < 1 {
		c.Server.TimeoutSecs = 1
	}
	if c.Server.StreamTimeoutSecs < 0 {
		c.Server.StreamTimeoutSecs = 0
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.UI.HighlightClearMs < 0 {
		c.UI.HighlightClearMs = 0
	}
	if c.History.MaxTranscripts < 0 {
		c.History.MaxTranscripts = 0
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the non-streaming request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// StreamTimeout returns the streaming exchange deadline, 0 for none.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Server.StreamTimeoutSecs) * time.Second
}

// HighlightClearDelay returns the highlight auto-clear delay.
func (c *Config) HighlightClearDelay() time.Duration {
	return time.Duration(c.UI.HighlightClearMs) * time.Millisecond
}

// HistoryDir returns the transcript directory, creating the default when
// unset.
func (c *Config) HistoryDir() (string, error) {
	if c.History.Dir != "" {
		return c.History.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".draftpad", "history"), nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to its file, creating the directory.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
