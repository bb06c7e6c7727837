// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript and
// the document view.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Draftpad"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single transcript entry.
//
// A user message is immutable once created. An assistant message starts
// empty with IsStreaming=true, is mutated in place by its session's events,
// and is sealed exactly once by the terminal event. A sealed message never
// changes again, even if late events for a cancelled session arrive.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content is the final text for sealed messages.
	Content string `json:"content"`

	// EditSummary is the last edit operation label shown under the message
	// (e.g. "replace lines 10-12"), set from edit events.
	EditSummary string `json:"edit_summary,omitempty"`

	// Failed marks a message sealed by an error event.
	Failed bool `json:"failed,omitempty"`

	// Streaming state (not persisted).
	// strings.Builder keeps token appends linear instead of quadratic.
	IsStreaming bool            `json:"-"`
	accumulator strings.Builder `json:"-"`

	// thinking is the transient display override from the latest thinking
	// event. It never enters the accumulator and is dropped by the next
	// token or by the terminal event.
	thinking string

	sealed bool
}

// NewUserMessage creates an immutable user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
		sealed:    true,
	}
}

// NewAssistantMessage creates an empty streaming assistant message.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// STREAMING MUTATIONS
// =============================================================================

// AppendToken appends incremental text to the accumulator.
// The accumulator is append-only; a pending thinking overlay is dropped.
func (m *Message) AppendToken(token string) {
	if m.sealed || !m.IsStreaming {
		return
	}
	m.accumulator.WriteString(token)
	m.thinking = ""
}

// SetThinking sets the transient display override.
// The accumulator is untouched: thinking text never persists.
func (m *Message) SetThinking(status string) {
	if m.sealed || !m.IsStreaming {
		return
	}
	m.thinking = status
}

// SetEditSummary records the label of the latest edit operation.
func (m *Message) SetEditSummary(summary string) {
	if m.sealed || !m.IsStreaming {
		return
	}
	m.EditSummary = summary
}

// Finalize seals the message on a done event. If summary is non-empty it is
// appended as a suffix after the accumulated content.
func (m *Message) Finalize(summary string) {
	if m.sealed || !m.IsStreaming {
		return
	}
	content := m.accumulator.String()
	if summary != "" {
		if content != "" {
			content += "\n\n"
		}
		content += "✓ " + summary
	}
	m.seal(content)
}

// Fail seals the message on an error event, replacing the displayed content
// with an error rendering.
func (m *Message) Fail(message string) {
	if m.sealed || !m.IsStreaming {
		return
	}
	m.Failed = true
	m.seal("Error: " + message)
}

// seal freezes the message with its final content.
func (m *Message) seal(content string) {
	m.Content = content
	m.accumulator.Reset()
	m.thinking = ""
	m.IsStreaming = false
	m.sealed = true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Sealed returns true once the message will no longer mutate.
func (m *Message) Sealed() bool {
	return m.sealed
}

// IsThinking returns true while a thinking override is the display content.
func (m *Message) IsThinking() bool {
	return m.IsStreaming && m.thinking != ""
}

// DisplayContent returns the text to render for this message: the thinking
// override while one is pending, the accumulator while streaming, and the
// final content once sealed.
func (m *Message) DisplayContent() string {
	if m.sealed {
		return m.Content
	}
	if m.thinking != "" {
		return m.thinking
	}
	return m.accumulator.String()
}

// AccumulatedContent returns the append-only accumulator, ignoring any
// thinking overlay. Empty once the message is sealed.
func (m *Message) AccumulatedContent() string {
	return m.accumulator.String()
}

// Preview returns a truncated single-line preview of the message.
func (m *Message) Preview(maxRunes int) string {
	content := strings.ReplaceAll(m.DisplayContent(), "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// IsEmpty returns true if the message has no content at all.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && m.accumulator.Len() == 0 && m.thinking == ""
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
