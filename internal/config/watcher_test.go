// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, url string) {
	t.Helper()
	content := "[server]\nurl = \"" + url + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "http://first:8000")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	// Give the watcher a moment to register before the write.
	time.Sleep(50 * time.Millisecond)
	writeConfig(t, path, "http://second:8000")

	select {
	case cfg := <-reloaded:
		if cfg.Server.URL != "http://second:8000" {
			t.Errorf("reloaded URL = %q", cfg.Server.URL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatcherKeepsPreviousOnParseFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "http://ok:8000")

	calls := 0
	w, err := NewWatcher(path, func(cfg *Config) { calls++ })
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[[[broken"), 0644); err != nil {
		t.Fatal(err)
	}

	// A malformed rewrite must not invoke the callback.
	time.Sleep(600 * time.Millisecond)
	if calls != 0 {
		t.Errorf("callback fired %d times for a malformed config", calls)
	}
}
