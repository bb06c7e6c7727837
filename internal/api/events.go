// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the draftpad document server,
// including the streaming edit channel and the documents CRUD surface.
package api

import (
	"encoding/json"
	"strconv"
	"time"
)

// =============================================================================
// STREAM EVENT TYPES
// =============================================================================

// EventType identifies the kind of a streamed event record.
type EventType string

const (
	// EventToken carries an incremental chunk of assistant text.
	EventToken EventType = "token"

	// EventThinking carries transient status text. It replaces the
	// displayed assistant content instead of appending to it.
	EventThinking EventType = "thinking"

	// EventHighlight names the 1-based document line currently being edited.
	EventHighlight EventType = "highlight"

	// EventEdit signals that the server applied an edit to the document.
	// The local copy must be re-fetched; the payload is never patched in.
	EventEdit EventType = "edit"

	// EventDone terminates a stream successfully. An optional summary
	// is appended to the assistant message.
	EventDone EventType = "done"

	// EventError terminates a stream with a failure message.
	EventError EventType = "error"
)

// StreamEvent is one decoded record from the edit stream.
//
// The wire format is a JSON object with a "type" discriminator and a sparse
// set of per-type fields; fields that do not belong to the event's type are
// simply absent. Unknown types decode without error so that new event kinds
// added server-side do not break older clients.
type StreamEvent struct {
	Type EventType `json:"type"`

	// Content is set for token and thinking events.
	Content string `json:"content,omitempty"`

	// Line is set for highlight events (1-based).
	Line int `json:"line,omitempty"`

	// Operation is set for edit events.
	Operation *EditOperation `json:"operation,omitempty"`

	// Summary is set for done events (optional even there).
	Summary string `json:"summary,omitempty"`

	// Message is set for error events.
	Message string `json:"message,omitempty"`
}

// IsTerminal returns true if the event ends its session.
// At most one terminal event is observed per session.
func (e *StreamEvent) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// IsKnown returns true if the event type is one this client understands.
// Unknown kinds are ignored by every consumer (forward compatibility).
func (e *StreamEvent) IsKnown() bool {
	switch e.Type {
	case EventToken, EventThinking, EventHighlight, EventEdit, EventDone, EventError:
		return true
	default:
		return false
	}
}

// =============================================================================
// EDIT OPERATION
// =============================================================================

// EditOperation describes a server-side document edit carried by an edit
// event. The client logs it and surfaces the kind in the UI, but never
// applies it locally: the authoritative content comes from a re-fetch.
type EditOperation struct {
	Operation  string `json:"operation"` // "insert", "replace", or "delete"
	LineStart  int    `json:"line_start"`
	LineEnd    int    `json:"line_end,omitempty"`
	NewContent string `json:"new_content,omitempty"`
}

// Describe returns a short human-readable label for the operation,
// e.g. "replace lines 10-12" or "insert at line 5".
func (op *EditOperation) Describe() string {
	if op == nil {
		return "edit"
	}
	switch op.Operation {
	case "insert":
		return "insert at line " + strconv.Itoa(op.LineStart)
	case "replace":
		if op.LineEnd > op.LineStart {
			return "replace lines " + strconv.Itoa(op.LineStart) + "-" + strconv.Itoa(op.LineEnd)
		}
		return "replace line " + strconv.Itoa(op.LineStart)
	case "delete":
		if op.LineEnd > op.LineStart {
			return "delete lines " + strconv.Itoa(op.LineStart) + "-" + strconv.Itoa(op.LineEnd)
		}
		return "delete line " + strconv.Itoa(op.LineStart)
	default:
		return "edit at line " + strconv.Itoa(op.LineStart)
	}
}

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Document is the server's document representation.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentCreate is the request body for creating a document.
type DocumentCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocumentUpdate is the request body for updating a document.
// Nil fields are left unchanged server-side.
type DocumentUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// EditRequest is the body of one streaming edit exchange.
type EditRequest struct {
	Prompt string `json:"prompt"`
}

// =============================================================================
// HELPERS
// =============================================================================

// parseEvent decodes one frame payload into a StreamEvent.
// A payload that is not a well-formed JSON object is an error; the decoder
// drops such frames rather than surfacing them.
func parseEvent(payload []byte) (StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return StreamEvent{}, err
	}
	return ev, nil
}
