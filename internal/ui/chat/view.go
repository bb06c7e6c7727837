// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/draftpad-tui/internal/model"
	"github.com/jeranaias/draftpad-tui/internal/ui/components"
	"github.com/jeranaias/draftpad-tui/internal/ui/styles"
	"github.com/jeranaias/draftpad-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	chat := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)

	var screen string
	if m.theme.GetLayoutMode() == styles.LayoutWide && m.docState != nil {
		screen = lipgloss.JoinHorizontal(lipgloss.Top, m.docPane.View(), chat)
	} else {
		screen = chat
	}

	if m.toasts.HasToasts() {
		stack := components.RenderToastStack(m.toasts.TickToasts(), m.width, 0)
		if stack != "" {
			screen = overlayToasts(screen, stack, m.width, m.height)
		}
	}
	return screen
}

// overlayToasts merges the toast stack into the bottom-right corner of the
// rendered screen. The document pane and transcript stay visible underneath;
// only the cells the toasts occupy are covered.
func overlayToasts(screen, stack string, width, height int) string {
	base := strings.Split(screen, "\n")
	toast := strings.Split(stack, "\n")

	// Anchor above the status bar.
	start := height - len(toast) - 2
	if start > len(base)-len(toast) {
		start = len(base) - len(toast)
	}
	if start < 0 {
		start = 0
	}

	for i := range base {
		j := i - start
		if j < 0 || j >= len(toast) {
			continue
		}
		line := toast[j]
		lineWidth := lipgloss.Width(line)
		if lineWidth == 0 {
			continue
		}

		keep := width - lineWidth
		if keep < 0 {
			keep = 0
		}
		row := base[i]
		if rowWidth := lipgloss.Width(row); rowWidth > keep {
			row = truncateVisible(row, keep)
		} else if rowWidth < keep {
			row += strings.Repeat(" ", keep-rowWidth)
		}
		base[i] = row + line
	}
	return strings.Join(base, "\n")
}

// truncateVisible cuts a rendered line to a visible width, walking runes so
// wide characters are not split mid-cell.
func truncateVisible(s string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String()
}

// renderHeader renders the title bar.
func (m Model) renderHeader() string {
	title := "draftpad"
	if m.docState != nil && m.docState.Doc.Title != "" {
		title = m.docState.Doc.Title
	}
	left := m.theme.HeaderTitle.Render(util.TruncateRunes(title, m.width/2))
	right := m.theme.HeaderDocID.Render(m.docID)

	gap := m.viewport.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.viewport.Width + 2).Render(
		left + strings.Repeat(" ", gap) + right,
	)
}

// renderInput renders the prompt line.
func (m Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	return m.theme.InputContainer.Width(m.viewport.Width + 2).Render(prompt + m.input.View())
}

// renderStatusBar renders the session indicator and key hints.
func (m Model) renderStatusBar() string {
	var state string
	if m.streaming {
		state = m.theme.StatusActive.Render(m.spinner.View() + "editing")
	} else {
		state = m.theme.StatusIdle.Render("ready")
	}

	hints := []string{
		m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send"),
		m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" cancel"),
		m.theme.ShortcutKey.Render("^p") + m.theme.ShortcutDesc.Render(" preview"),
		m.theme.ShortcutKey.Render("^c") + m.theme.ShortcutDesc.Render(" quit"),
	}

	return m.theme.StatusBar.Width(m.viewport.Width + 2).Render(
		state + "  " + strings.Join(hints, "  "),
	)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport rebuilds the chat viewport from the transcript and keeps
// it pinned to the bottom while streaming.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var blocks []string
	for _, msg := range m.transcript.Messages() {
		blocks = append(blocks, m.renderMessage(msg))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

// renderMessage renders one transcript entry as a bubble.
func (m *Model) renderMessage(msg *model.Message) string {
	width := m.viewport.Width - 8
	if width < 20 {
		width = 20
	}

	label := m.theme.ShortcutDesc.Render(msg.Role.DisplayName())

	switch msg.Role {
	case model.RoleUser:
		bubble := m.theme.UserBubble.Width(width).Render(msg.Content)
		return lipgloss.JoinVertical(lipgloss.Right, label, bubble)

	default:
		content := msg.DisplayContent()

		if msg.IsThinking() {
			content = m.spinner.View() + " " + m.theme.ThinkingText.Render(content)
		} else if msg.IsStreaming && content == "" {
			content = m.spinner.View() + " " + m.theme.ThinkingText.Render("waiting for response")
		} else if msg.Failed {
			content = m.theme.ErrorStyle.Render(content)
		} else if msg.Sealed() {
			content = components.ParseCodeBlocks(content, width)
		}

		bubble := m.theme.AssistantBubble.Width(width).Render(content)
		if msg.EditSummary != "" {
			bubble = lipgloss.JoinVertical(
				lipgloss.Left,
				bubble,
				m.theme.EditSummary.Render("✎ "+msg.EditSummary),
			)
		}
		return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
	}
}
