// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/config"
)

// newTestModel builds a resized model with no persistence and no server.
func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	cfg.UI.Theme = "dark"
	cfg.History.Enabled = false

	m := New(cfg, api.NewClient(cfg.Server.URL), nil, "doc-1")
	mi, _ := m.handleResize(tea.WindowSizeMsg{Width: 100, Height: 30})
	return mi.(Model)
}

func TestToastOverlayKeepsPanesVisible(t *testing.T) {
	m := newTestModel(t)

	mi, _ := m.handleDocRefreshed(api.Document{
		ID:      "doc-1",
		Title:   "Field Notes",
		Content: "the quick brown fox\njumps over the lazy dog",
	})
	m = mi.(Model)
	m.transcript.AddUser("please shorten the intro")
	m.refreshViewport()

	m.toasts.AddError("document refresh failed")
	out := m.View()

	// Toasts cover only their own corner; both panes stay on screen.
	if !strings.Contains(out, "quick brown fox") {
		t.Error("document pane hidden while a toast is visible")
	}
	if !strings.Contains(out, "please shorten") {
		t.Error("chat transcript hidden while a toast is visible")
	}
	if !strings.Contains(out, "refresh failed") {
		t.Error("toast missing from the rendered screen")
	}
}

func TestViewWithoutToastsUnchanged(t *testing.T) {
	m := newTestModel(t)

	mi, _ := m.handleDocRefreshed(api.Document{ID: "doc-1", Content: "alpha"})
	m = mi.(Model)

	before := m.View()
	m.toasts.AddStatus("edit cancelled")
	during := m.View()
	m.toasts.Clear()
	after := m.View()

	if before != after {
		t.Error("clearing toasts should restore the exact base screen")
	}
	if before == during {
		t.Error("an active toast should alter the rendered screen")
	}
}

func TestTruncateVisible(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"日本語", 4, "日本"},
		{"日本語", 3, "日"},
		{"abc", 0, ""},
	}
	for _, tc := range tests {
		if got := truncateVisible(tc.in, tc.width); got != tc.want {
			t.Errorf("truncateVisible(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
