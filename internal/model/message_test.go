// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE LIFECYCLE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("make it shorter")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if msg.Content != "make it shorter" {
		t.Errorf("Content = %q", msg.Content)
	}
	if !msg.Sealed() {
		t.Error("user messages must be sealed on creation")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage()

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if !msg.IsStreaming {
		t.Error("assistant message should start streaming")
	}
	if msg.Sealed() {
		t.Error("assistant message should not start sealed")
	}
	if !msg.IsEmpty() {
		t.Error("assistant message should start empty")
	}
}

func TestAppendTokenAccumulates(t *testing.T) {
	msg := NewAssistantMessage()
	for _, token := range []string{"A", "B", "C"} {
		msg.AppendToken(token)
	}

	if got := msg.AccumulatedContent(); got != "ABC" {
		t.Errorf("accumulated = %q, want 'ABC'", got)
	}
	if got := msg.DisplayContent(); got != "ABC" {
		t.Errorf("display = %q, want 'ABC'", got)
	}
}

func TestThinkingOverridesDisplayNotAccumulator(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("Hello")
	msg.SetThinking("Analyzing document...")

	if !msg.IsThinking() {
		t.Error("IsThinking should be true after SetThinking")
	}
	if got := msg.DisplayContent(); got != "Analyzing document..." {
		t.Errorf("display = %q, want thinking text", got)
	}
	if got := msg.AccumulatedContent(); got != "Hello" {
		t.Errorf("accumulated = %q, thinking must not enter the accumulator", got)
	}

	// The next token drops the overlay and the full accumulator shows again.
	msg.AppendToken(" world")
	if msg.IsThinking() {
		t.Error("token should clear the thinking overlay")
	}
	if got := msg.DisplayContent(); got != "Hello world" {
		t.Errorf("display = %q, want 'Hello world'", got)
	}
}

func TestFinalizeWithSummary(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("Done editing.")
	msg.Finalize("Reworded the intro")

	if !msg.Sealed() {
		t.Error("Finalize must seal the message")
	}
	if msg.IsStreaming {
		t.Error("sealed message must not be streaming")
	}
	want := "Done editing.\n\n✓ Reworded the intro"
	if msg.Content != want {
		t.Errorf("Content = %q, want %q", msg.Content, want)
	}
}

func TestFinalizeEmptySummary(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("text")
	msg.Finalize("")

	if msg.Content != "text" {
		t.Errorf("Content = %q, want 'text'", msg.Content)
	}
}

func TestFinalizeSummaryOnly(t *testing.T) {
	msg := NewAssistantMessage()
	msg.Finalize("Deleted two lines")

	if msg.Content != "✓ Deleted two lines" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestFailSealsWithErrorRendering(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("partial")
	msg.Fail("model overloaded")

	if !msg.Failed {
		t.Error("Failed should be set")
	}
	if !msg.Sealed() {
		t.Error("Fail must seal the message")
	}
	if msg.Content != "Error: model overloaded" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestSealedMessageNeverMutates(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("final")
	msg.Finalize("")

	// Late events for a cancelled or completed session must be no-ops.
	msg.AppendToken("late token")
	msg.SetThinking("late thinking")
	msg.SetEditSummary("late summary")
	msg.Fail("late error")
	msg.Finalize("late done")

	if msg.Content != "final" {
		t.Errorf("Content = %q, sealed message mutated", msg.Content)
	}
	if msg.Failed {
		t.Error("sealed message took a late Fail")
	}
	if msg.EditSummary != "" {
		t.Error("sealed message took a late edit summary")
	}
}

// =============================================================================
// ACCESSOR TESTS
// =============================================================================

func TestPreview(t *testing.T) {
	msg := NewUserMessage("first line\nsecond line that keeps going for a while")

	preview := msg.Preview(20)
	if strings.Contains(preview, "\n") {
		t.Error("preview must be single-line")
	}
	if len([]rune(preview)) > 20 {
		t.Errorf("preview %q longer than 20 runes", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("preview %q should be truncated with ellipsis", preview)
	}

	short := NewUserMessage("hi")
	if got := short.Preview(20); got != "hi" {
		t.Errorf("short preview = %q", got)
	}
}

func TestRoleDisplayName(t *testing.T) {
	if got := RoleUser.DisplayName(); got != "You" {
		t.Errorf("user display = %q", got)
	}
	if got := RoleAssistant.DisplayName(); got != "Draftpad" {
		t.Errorf("assistant display = %q", got)
	}
}
