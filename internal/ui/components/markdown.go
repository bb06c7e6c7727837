// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders document content and sealed assistant messages.
// Created lazily; a nil renderer falls back to plain text.
var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
	markdownWidth    int
)

// RenderMarkdown renders markdown for terminal display at the given wrap
// width. Returns the input unchanged if rendering fails.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	markdownOnce.Do(func() {
		markdownWidth = width
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			markdownRenderer = r
		}
	})

	// Rebuild on width change (terminal resize).
	if markdownRenderer != nil && width != markdownWidth {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			markdownRenderer = r
			markdownWidth = width
		}
	}

	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
