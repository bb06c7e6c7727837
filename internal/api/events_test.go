// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "testing"

// =============================================================================
// EVENT PARSING TESTS
// =============================================================================

func TestParseEventKinds(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, ev StreamEvent)
	}{
		{
			name:    "token",
			payload: `{"type":"token","content":"Hello"}`,
			check: func(t *testing.T, ev StreamEvent) {
				if ev.Type != EventToken || ev.Content != "Hello" {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			name:    "thinking",
			payload: `{"type":"thinking","content":"Analyzing document..."}`,
			check: func(t *testing.T, ev StreamEvent) {
				if ev.Type != EventThinking || ev.Content != "Analyzing document..." {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			name:    "highlight",
			payload: `{"type":"highlight","line":12}`,
			check: func(t *testing.T, ev StreamEvent) {
				if ev.Type != EventHighlight || ev.Line != 12 {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			name:    "edit",
			payload: `{"type":"edit","operation":{"operation":"replace","line_start":3,"line_end":5,"new_content":"new text"}}`,
			check: func(t *testing.T, ev StreamEvent) {
				if ev.Type != EventEdit || ev.Operation == nil {
					t.Fatalf("got %+v", ev)
				}
				if ev.Operation.Operation != "replace" || ev.Operation.LineStart != 3 || ev.Operation.LineEnd != 5 {
					t.Errorf("operation = %+v", ev.Operation)
				}
			},
		},
		{
			name:    "done",
			payload: `{"type":"done","summary":"Fixed the intro"}`,
			check: func(t *testing.T, ev StreamEvent) {
				if ev.Type != EventDone || ev.Summary != "Fixed the intro" {
					t.Errorf("got %+v", ev)
				}
			},
		},
		{
			name:    "error",
			payload: `{"type":"error","message":"model overloaded"}`,
			check: func(t *testing.T, ev StreamEvent) {
				if ev.Type != EventError || ev.Message != "model overloaded" {
					t.Errorf("got %+v", ev)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := parseEvent([]byte(tc.payload))
			if err != nil {
				t.Fatalf("parseEvent error: %v", err)
			}
			tc.check(t, ev)
		})
	}
}

func TestParseEventUnknownType(t *testing.T) {
	// Unknown kinds decode without error so new server events don't break
	// older clients; consumers skip them via IsKnown.
	ev, err := parseEvent([]byte(`{"type":"metrics","content":"ignored"}`))
	if err != nil {
		t.Fatalf("parseEvent error: %v", err)
	}
	if ev.IsKnown() {
		t.Error("IsKnown() should be false for unrecognized type")
	}
	if ev.IsTerminal() {
		t.Error("IsTerminal() should be false for unrecognized type")
	}
}

func TestParseEventMalformed(t *testing.T) {
	for _, payload := range []string{"", "not json", `["array"]`, `"string"`} {
		if _, err := parseEvent([]byte(payload)); err == nil {
			t.Errorf("parseEvent(%q) should fail", payload)
		}
	}
}

func TestStreamEventIsTerminal(t *testing.T) {
	tests := []struct {
		typ  EventType
		want bool
	}{
		{EventToken, false},
		{EventThinking, false},
		{EventHighlight, false},
		{EventEdit, false},
		{EventDone, true},
		{EventError, true},
	}
	for _, tc := range tests {
		ev := StreamEvent{Type: tc.typ}
		if got := ev.IsTerminal(); got != tc.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

// =============================================================================
// EDIT OPERATION TESTS
// =============================================================================

func TestEditOperationDescribe(t *testing.T) {
	tests := []struct {
		name string
		op   *EditOperation
		want string
	}{
		{"nil", nil, "edit"},
		{"insert", &EditOperation{Operation: "insert", LineStart: 5}, "insert at line 5"},
		{"replace one", &EditOperation{Operation: "replace", LineStart: 10}, "replace line 10"},
		{"replace range", &EditOperation{Operation: "replace", LineStart: 10, LineEnd: 12}, "replace lines 10-12"},
		{"delete one", &EditOperation{Operation: "delete", LineStart: 7}, "delete line 7"},
		{"delete range", &EditOperation{Operation: "delete", LineStart: 7, LineEnd: 9}, "delete lines 7-9"},
		{"unknown kind", &EditOperation{Operation: "reformat", LineStart: 2}, "edit at line 2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.op.Describe(); got != tc.want {
				t.Errorf("Describe() = %q, want %q", got, tc.want)
			}
		})
	}
}
