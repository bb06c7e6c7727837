// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/draftpad-tui/internal/model"
	"github.com/jeranaias/draftpad-tui/internal/ui/styles"
	"github.com/jeranaias/draftpad-tui/internal/util"
)

// =============================================================================
// DOCUMENT PANE
// =============================================================================

// DocPane renders the open document beside the chat: numbered lines with the
// currently-edited line highlighted, or a rendered markdown preview.
//
// The pane always shows the server's authoritative content; it is replaced
// wholesale on every refresh and never patched locally.
type DocPane struct {
	Viewport viewport.Model
	theme    *styles.Theme

	state *model.DocumentState

	// highlightLine is the 1-based line to highlight, 0 for none.
	highlightLine int

	// markdownMode renders the document through glamour instead of the
	// numbered plain-text view. Highlighting only applies to the plain view.
	markdownMode bool

	// refreshing is shown in the title while a re-fetch is in flight.
	refreshing bool

	width  int
	height int
}

// NewDocPane creates a document pane.
func NewDocPane(theme *styles.Theme, markdownMode bool) *DocPane {
	vp := viewport.New(0, 0)
	return &DocPane{
		Viewport:     vp,
		theme:        theme,
		markdownMode: markdownMode,
	}
}

// SetSize resizes the pane.
func (p *DocPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.Viewport.Width = width - 4   // border and padding
	p.Viewport.Height = height - 3 // border and title
	if p.Viewport.Width < 10 {
		p.Viewport.Width = 10
	}
	if p.Viewport.Height < 1 {
		p.Viewport.Height = 1
	}
	p.refreshContent()
}

// SetDocument replaces the displayed document.
func (p *DocPane) SetDocument(state *model.DocumentState) {
	p.state = state
	p.refreshContent()
}

// SetHighlight moves the highlighted line. 0 clears it.
func (p *DocPane) SetHighlight(line int) {
	p.highlightLine = line
	p.refreshContent()
	if line > 0 {
		p.scrollToLine(line)
	}
}

// SetRefreshing toggles the refreshing indicator.
func (p *DocPane) SetRefreshing(on bool) {
	p.refreshing = on
}

// ToggleMarkdown flips between the numbered view and the markdown preview.
func (p *DocPane) ToggleMarkdown() {
	p.markdownMode = !p.markdownMode
	p.refreshContent()
}

// refreshContent rebuilds the viewport content.
func (p *DocPane) refreshContent() {
	if p.state == nil {
		p.Viewport.SetContent(p.theme.RefreshingNote.Render("no document loaded"))
		return
	}

	if p.markdownMode {
		p.Viewport.SetContent(RenderMarkdown(p.state.Doc.Content, p.Viewport.Width))
		return
	}

	lines := p.state.Lines()
	rendered := make([]string, 0, len(lines))
	contentWidth := p.Viewport.Width - 6
	if contentWidth < 4 {
		contentWidth = 4
	}

	for _, ln := range lines {
		num := p.theme.LineNumber.Render(strconv.Itoa(ln.Number))
		text := util.TruncateWidth(ln.Content, contentWidth)
		if ln.Number == p.highlightLine {
			text = p.theme.HighlightedLine.Render(util.PadRight(text, contentWidth))
		} else {
			text = p.theme.DocumentLine.Render(text)
		}
		rendered = append(rendered, num+text)
	}
	p.Viewport.SetContent(strings.Join(rendered, "\n"))
}

// scrollToLine keeps the highlighted line visible.
func (p *DocPane) scrollToLine(line int) {
	top := p.Viewport.YOffset
	bottom := top + p.Viewport.Height
	idx := line - 1
	if idx < top || idx >= bottom {
		offset := idx - p.Viewport.Height/2
		if offset < 0 {
			offset = 0
		}
		p.Viewport.SetYOffset(offset)
	}
}

// View renders the pane.
func (p *DocPane) View() string {
	title := "Document"
	if p.state != nil && p.state.Doc.Title != "" {
		title = util.TruncateRunes(p.state.Doc.Title, p.width-14)
	}
	header := p.theme.DocumentTitle.Render(title)
	if p.refreshing {
		header += " " + p.theme.RefreshingNote.Render("(refreshing)")
	}

	body := lipgloss.JoinVertical(lipgloss.Left, header, p.Viewport.View())
	return p.theme.DocumentPane.Width(p.width - 2).Render(body)
}
