// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL != "http://localhost:8000" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d", cfg.Server.TimeoutSecs)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if cfg.UI.HighlightClearMs != 2000 {
		t.Errorf("HighlightClearMs = %d", cfg.UI.HighlightClearMs)
	}
	if !cfg.History.Enabled {
		t.Error("history should default on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1"

[server]
url = "http://docs.internal:9000"
timeout_secs = 10

[ui]
theme = "dark"
highlight_clear_ms = 500

[history]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	if cfg.Server.URL != "http://docs.internal:9000" {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
	if cfg.UI.Theme != "dark" || cfg.UI.HighlightClearMs != 500 {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
	// Unset fields keep their defaults.
	if cfg.Server.RateLimitPerSec != 10 {
		t.Errorf("RateLimitPerSec = %v, want default 10", cfg.Server.RateLimitPerSec)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[[[not toml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("malformed config should fail, not silently default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRAFTPAD_SERVER_URL", "http://override:8080")
	t.Setenv("DRAFTPAD_THEME", "light")
	t.Setenv("DRAFTPAD_TIMEOUT_SECS", "7")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[server]`+"\n"+`url = "http://fromfile:1"`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Server.URL != "http://override:8080" {
		t.Errorf("URL = %q, env must win over file", cfg.Server.URL)
	}
	if cfg.UI.Theme != "light" || cfg.Server.TimeoutSecs != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidateRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "ftp://host", "localhost:8000"} {
		cfg := Default()
		cfg.Server.URL = u
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidServerURL) {
			t.Errorf("Validate(url=%q) = %v, want ErrInvalidServerURL", u, err)
		}
	}
}

func TestValidateRejectsBadTheme(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "solarized"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTheme) {
		t.Errorf("Validate = %v, want ErrInvalidTheme", err)
	}
}

func TestValidateClampsRanges(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 0
	cfg.Server.StreamTimeoutSecs = -5
	cfg.UI.HighlightClearMs = -100
	cfg.History.MaxTranscripts = -1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.Server.TimeoutSecs != 1 {
		t.Errorf("TimeoutSecs = %d, want clamped to 1", cfg.Server.TimeoutSecs)
	}
	if cfg.Server.StreamTimeoutSecs != 0 || cfg.UI.HighlightClearMs != 0 || cfg.History.MaxTranscripts != 0 {
		t.Errorf("negative values not clamped: %+v", cfg)
	}
}

// =============================================================================
// DERIVED VALUES AND ROUND TRIP
// =============================================================================

func TestDerivedDurations(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 12
	cfg.Server.StreamTimeoutSecs = 90
	cfg.UI.HighlightClearMs = 250

	if cfg.Timeout() != 12*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.StreamTimeout() != 90*time.Second {
		t.Errorf("StreamTimeout = %v", cfg.StreamTimeout())
	}
	if cfg.HighlightClearDelay() != 250*time.Millisecond {
		t.Errorf("HighlightClearDelay = %v", cfg.HighlightClearDelay())
	}
}

func TestSaveToThenLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Server.URL = "http://saved:4000"
	cfg.UI.Theme = "dark"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Server.URL != "http://saved:4000" || loaded.UI.Theme != "dark" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestHistoryDirOverride(t *testing.T) {
	cfg := Default()
	cfg.History.Dir = "/tmp/custom-history"

	dir, err := cfg.HistoryDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/custom-history" {
		t.Errorf("HistoryDir = %q", dir)
	}
}
