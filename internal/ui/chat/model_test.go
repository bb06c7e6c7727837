// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/session"
)

// blockedStreamer holds the transport open until released, standing in for
// a server that is still generating.
type blockedStreamer struct {
	release chan struct{}
}

func (s *blockedStreamer) StreamEdit(ctx context.Context, documentID, prompt string, cb api.EventCallback) error {
	<-s.release
	return nil
}

func TestCancelKeepsReceivedTokens(t *testing.T) {
	m := newTestModel(t)

	release := make(chan struct{})
	m.controller = session.NewController(&blockedStreamer{release: release}, 0)
	defer close(release)

	m.transcript.AddUser("shorten it")
	asst := m.transcript.StartAssistant()
	m.streamingMsgID = asst.ID
	if _, err := m.controller.Start("doc-1", asst.ID, "shorten it", session.Callbacks{}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	m.streaming = true

	// Tokens delivered but still batched, not yet applied to the transcript.
	m.streamingBuffer.Write("partial ")
	m.streamingBuffer.Write("answer")

	mi, _ := m.cancelSession()
	m = mi.(Model)

	if !asst.Sealed() {
		t.Fatal("cancelled message should be sealed")
	}
	if asst.Content != "partial answer" {
		t.Errorf("Content = %q, tokens received before cancel must stay in the transcript", asst.Content)
	}
	if m.streamingBuffer.Pending() != 0 {
		t.Errorf("buffer still holds %d tokens after cancel", m.streamingBuffer.Pending())
	}
	if m.controller.Active() != nil {
		t.Error("cancelled session should free the active slot")
	}
}
