// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// DOCUMENT COMMANDS
// =============================================================================

// loadDocumentCmd fetches the document for the initial view.
func (m Model) loadDocumentCmd() tea.Cmd {
	client := m.client
	id := m.docID
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		doc, err := client.GetDocument(ctx, id)
		if err != nil {
			return DocRefreshFailedMsg{Err: err}
		}
		return DocRefreshedMsg{Doc: *doc}
	}
}

// refreshDocumentCmd re-fetches the whole document after an edit event.
// One command per edit event: refreshes are never coalesced, so the pane
// converges on the server's authoritative content even if an intermediate
// fetch races an edit.
func (m Model) refreshDocumentCmd() tea.Cmd {
	return m.loadDocumentCmd()
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// healthCheckCmd probes the backend once at startup. An unreachable server
// is reported as a toast, not a fatal error; the user may start it later.
func (m Model) healthCheckCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return HealthCheckMsg{Err: client.Health(ctx)}
	}
}
