// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/jeranaias/draftpad-tui/internal/api"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered chat history for one open document.
//
// Event application never reorders or deletes messages, and only ever
// mutates the single assistant message registered for the applying session.
// The transcript is mutated from one control path only (the goroutine or
// update loop that owns the document context), so it carries no lock.
type Transcript struct {
	messages []*Message
	byID     map[string]*Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		byID: make(map[string]*Message),
	}
}

// Messages returns the ordered message list. Callers must not reorder it.
func (t *Transcript) Messages() []*Message {
	return t.messages
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message, or nil when empty.
func (t *Transcript) Last() *Message {
	if len(t.messages) == 0 {
		return nil
	}
	return t.messages[len(t.messages)-1]
}

// Get returns a message by ID, or nil.
func (t *Transcript) Get(id string) *Message {
	return t.byID[id]
}

// AddUser appends an immutable user message and returns it.
func (t *Transcript) AddUser(content string) *Message {
	msg := NewUserMessage(content)
	t.append(msg)
	return msg
}

// StartAssistant appends a fresh streaming assistant message and returns it.
// The returned message's ID is what a session registers as its target.
func (t *Transcript) StartAssistant() *Message {
	msg := NewAssistantMessage()
	t.append(msg)
	return msg
}

// Clear removes all messages. Used when switching documents, never as part
// of event handling.
func (t *Transcript) Clear() {
	t.messages = nil
	t.byID = make(map[string]*Message)
}

func (t *Transcript) append(msg *Message) {
	t.messages = append(t.messages, msg)
	t.byID[msg.ID] = msg
}

// =============================================================================
// EVENT REDUCER
// =============================================================================

// ApplyEvent applies one stream event to the assistant message with the
// given ID and reports whether the transcript changed.
//
// Only token, thinking, done, and error events mutate the transcript; edit
// events contribute a status label but their operation is handled by the
// document refresh path, and highlight events are routed to the highlight
// controller. Unknown event kinds are ignored for forward compatibility.
// Events addressed to a sealed or unknown message are no-ops.
func (t *Transcript) ApplyEvent(messageID string, ev api.StreamEvent) bool {
	msg := t.byID[messageID]
	if msg == nil || msg.Sealed() {
		return false
	}

	switch ev.Type {
	case api.EventToken:
		msg.AppendToken(ev.Content)
		return true

	case api.EventThinking:
		msg.SetThinking(ev.Content)
		return true

	case api.EventEdit:
		msg.SetEditSummary(ev.Operation.Describe())
		return true

	case api.EventHighlight:
		// Highlight pointer state lives outside the transcript.
		return false

	case api.EventDone:
		msg.Finalize(ev.Summary)
		return true

	case api.EventError:
		msg.Fail(ev.Message)
		return true

	default:
		return false
	}
}
