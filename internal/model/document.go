// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/jeranaias/draftpad-tui/internal/api"
)

// =============================================================================
// DOCUMENT VIEW STATE
// =============================================================================

// DocumentLine is one line of a document with its 1-based number.
type DocumentLine struct {
	Number  int
	Content string
}

// DocumentState holds the local copy of the open document.
//
// The local copy is always a full reflection of server-confirmed state: edit
// events trigger a re-fetch and a whole-content replacement, never a local
// patch. RefreshedAt records when the copy was last confirmed.
type DocumentState struct {
	Doc         api.Document
	RefreshedAt time.Time
}

// NewDocumentState wraps a freshly fetched document.
func NewDocumentState(doc api.Document) *DocumentState {
	return &DocumentState{
		Doc:         doc,
		RefreshedAt: time.Now(),
	}
}

// Replace swaps in a newer server copy wholesale.
func (s *DocumentState) Replace(doc api.Document) {
	s.Doc = doc
	s.RefreshedAt = time.Now()
}

// Lines splits the document content into numbered lines.
func (s *DocumentState) Lines() []DocumentLine {
	return SplitLines(s.Doc.Content)
}

// LineCount returns the number of lines in the document.
func (s *DocumentState) LineCount() int {
	return strings.Count(s.Doc.Content, "\n") + 1
}

// Line returns the content of the given 1-based line.
func (s *DocumentState) Line(n int) (string, bool) {
	lines := strings.Split(s.Doc.Content, "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// =============================================================================
// HELPERS
// =============================================================================

// SplitLines splits content into numbered lines. An empty document is one
// empty line, matching how the server counts lines for edit operations.
func SplitLines(content string) []DocumentLine {
	raw := strings.Split(content, "\n")
	lines := make([]DocumentLine, len(raw))
	for i, line := range raw {
		lines[i] = DocumentLine{Number: i + 1, Content: line}
	}
	return lines
}
