// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the document-editing chat view for the TUI.
//
// This file defines the Bubble Tea messages that bridge the streaming
// session goroutine into the update loop.
package chat

import (
	"time"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/config"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// StreamEventMsg carries one decoded stream event from the active session.
// Events arrive strictly in wire order.
type StreamEventMsg struct {
	Event api.StreamEvent
}

// StreamCompleteMsg signals that the transport ended cleanly without an
// explicit done or error event.
type StreamCompleteMsg struct{}

// StreamErrorMsg signals that the session failed: a transport fault or a
// non-success response status. Delivered at most once per session.
type StreamErrorMsg struct {
	Err error
}

// StreamTickMsg is sent at 30fps during streaming to batch token renders.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// DOCUMENT MESSAGES
// =============================================================================

// DocRefreshedMsg carries a freshly fetched document after an edit event.
// The whole local copy is replaced; edits are never patched in.
type DocRefreshedMsg struct {
	Doc api.Document
}

// DocRefreshFailedMsg signals that a document re-fetch failed. The stale
// content stays on screen until the next refresh succeeds.
type DocRefreshFailedMsg struct {
	Err error
}

// HealthCheckMsg carries the result of the startup backend probe.
type HealthCheckMsg struct {
	Err error
}

// =============================================================================
// HIGHLIGHT MESSAGES
// =============================================================================

// HighlightChangedMsg signals that the highlight pointer changed outside the
// update loop (the auto-clear timer fired).
type HighlightChangedMsg struct{}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a hot-reloaded configuration from the file
// watcher. Only settings that are safe to change mid-session are applied.
type ConfigReloadedMsg struct {
	Cfg *config.Config
}
