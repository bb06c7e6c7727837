// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/config"
	"github.com/jeranaias/draftpad-tui/internal/highlight"
	"github.com/jeranaias/draftpad-tui/internal/model"
	"github.com/jeranaias/draftpad-tui/internal/session"
	"github.com/jeranaias/draftpad-tui/internal/storage"
	"github.com/jeranaias/draftpad-tui/internal/ui/components"
	"github.com/jeranaias/draftpad-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for one open document's editing chat.
type Model struct {
	// Styling
	theme  *styles.Theme
	keyMap KeyMap

	// Dimensions
	width  int
	height int

	// Server access
	client *api.Client

	// Streaming session lifecycle
	controller *session.Controller

	// Highlight pointer for the document pane
	highlightCtl   *highlight.Controller
	highlightDelay int // milliseconds, from config

	// Conversation
	transcript     *model.Transcript
	streamingMsgID string
	streaming      bool

	// Document state (server-authoritative, replaced on each refresh)
	docID    string
	docState *model.DocumentState

	// Streaming optimization
	streamingBuffer *StreamingBuffer

	// events bridges session and timer goroutines into the update loop.
	events chan tea.Msg

	// Transcript persistence (nil when history is disabled)
	store *storage.Store

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	docPane  *components.DocPane
	toasts   *components.ToastManager

	cfg   *config.Config
	ready bool
}

// New creates the chat model for a document. store may be nil.
func New(cfg *config.Config, client *api.Client, store *storage.Store, documentID string) Model {
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Describe the edit you want..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	events := make(chan tea.Msg, 256)

	hl := highlight.NewController()
	hl.SetOnChange(func() {
		// Timer-driven clears must repaint; never block the timer goroutine.
		select {
		case events <- HighlightChangedMsg{}:
		default:
		}
	})

	m := Model{
		theme:           theme,
		keyMap:          DefaultKeyMap(),
		client:          client,
		controller:      session.NewController(client, cfg.StreamTimeout()),
		highlightCtl:    hl,
		highlightDelay:  cfg.UI.HighlightClearMs,
		transcript:      model.NewTranscript(),
		docID:           documentID,
		streamingBuffer: NewStreamingBuffer(),
		events:          events,
		store:           store,
		viewport:        viewport.New(0, 0),
		input:           input,
		spinner:         sp,
		docPane:         components.NewDocPane(theme, cfg.UI.MarkdownPreview),
		toasts:          components.NewToastManager(),
		cfg:             cfg,
	}

	m.restoreHistory()
	return m
}

// restoreHistory loads the stored transcript for this document, if any.
func (m *Model) restoreHistory() {
	if m.store == nil {
		return
	}
	stored, err := m.store.Load(m.docID)
	if err != nil {
		return
	}
	m.transcript = stored.Restore()
}

// Init starts the initial document load and the event listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadDocumentCmd(),
		m.healthCheckCmd(),
		m.waitForEvent(),
		m.spinner.Tick,
		components.ToastTickCmd(),
		textinput.Blink,
	)
}

// waitForEvent relays one message from the session/timer goroutines.
// Re-armed after every delivery.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StreamEventMsg:
		return m.handleStreamEvent(msg.Event)

	case StreamCompleteMsg:
		return m.handleStreamComplete()

	case StreamErrorMsg:
		return m.handleStreamError(msg.Err)

	case StreamTickMsg:
		return m.handleStreamTick()

	case DocRefreshedMsg:
		return m.handleDocRefreshed(msg.Doc)

	case HealthCheckMsg:
		if msg.Err != nil {
			m.toasts.AddError("backend unreachable: " + friendlyError(msg.Err))
		}
		return m, nil

	case DocRefreshFailedMsg:
		m.docPane.SetRefreshing(false)
		m.toasts.AddError("document refresh failed: " + msg.Err.Error())
		return m, nil

	case HighlightChangedMsg:
		m.syncHighlight()
		return m, m.waitForEvent()

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg.Cfg)

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		return m, components.ToastTickCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResize recomputes the layout.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	chatWidth := m.width
	if m.theme.GetLayoutMode() == styles.LayoutWide {
		paneWidth := m.width * 2 / 5
		m.docPane.SetSize(paneWidth, m.height-4)
		chatWidth = m.width - paneWidth
	}

	m.viewport.Width = chatWidth - 2
	m.viewport.Height = m.height - 7 // header, input, status bar
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.Width = chatWidth - 6

	m.ready = true
	m.refreshViewport()
	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.controller.Shutdown()
		m.saveTranscript()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submitPrompt()

	case key.Matches(msg, m.keyMap.Cancel):
		return m.cancelSession()

	case key.Matches(msg, m.keyMap.ToggleMarkdown):
		m.docPane.ToggleMarkdown()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConfigReloaded applies the hot-reloadable subset of a new config.
// The server URL and timeouts stay fixed for the lifetime of the process.
func (m Model) handleConfigReloaded(cfg *config.Config) (tea.Model, tea.Cmd) {
	m.cfg = cfg
	m.highlightDelay = cfg.UI.HighlightClearMs
	m.toasts.AddStatus("configuration reloaded")
	return m, nil
}

// =============================================================================
// SESSION CONTROL
// =============================================================================

// submitPrompt starts a streaming edit session for the typed prompt.
// While a session is active the submission is rejected untouched: no
// message is added and no request goes out.
func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}

	if m.controller.Active() != nil {
		m.toasts.AddStatus("an edit is already in progress")
		return m, nil
	}

	m.transcript.AddUser(prompt)
	assistant := m.transcript.StartAssistant()
	m.streamingMsgID = assistant.ID
	m.streamingBuffer.Reset()
	m.highlightCtl.SessionStarted()

	events := m.events
	_, err := m.controller.Start(m.docID, assistant.ID, prompt, session.Callbacks{
		OnEvent: func(ev api.StreamEvent) {
			events <- StreamEventMsg{Event: ev}
		},
		OnComplete: func() {
			events <- StreamCompleteMsg{}
		},
		OnError: func(err error) {
			events <- StreamErrorMsg{Err: err}
		},
	})
	if err != nil {
		m.toasts.AddStatus("an edit is already in progress")
		return m, nil
	}

	m.streaming = true
	m.input.Reset()
	m.refreshViewport()
	return m, streamTickCmd()
}

// cancelSession abandons the active session. Everything the drain still
// yields is swallowed; the partial response stays in the transcript.
func (m Model) cancelSession() (tea.Model, tea.Cmd) {
	sess := m.controller.Active()
	if sess == nil {
		return m, nil
	}

	sess.Cancel()
	m.streaming = false
	// Tokens already received stay in the transcript; only undelivered
	// drain traffic is swallowed.
	m.flushTokens()
	m.highlightCtl.ClearNow()
	m.syncHighlight()

	if msg := m.transcript.Get(m.streamingMsgID); msg != nil && !msg.Sealed() {
		msg.Finalize("")
	}

	m.toasts.AddStatus("edit cancelled")
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// STREAM EVENT HANDLING
// =============================================================================

// handleStreamEvent applies one in-order event from the active session.
// Tokens are batched; every other event force-flushes pending tokens first
// so the transcript never observes reordering.
func (m Model) handleStreamEvent(ev api.StreamEvent) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForEvent()}

	switch ev.Type {
	case api.EventToken:
		m.streamingBuffer.Write(ev.Content)

	case api.EventThinking:
		m.flushTokens()
		m.transcript.ApplyEvent(m.streamingMsgID, ev)
		m.refreshViewport()

	case api.EventHighlight:
		m.flushTokens()
		m.highlightCtl.Set(ev.Line)
		m.syncHighlight()

	case api.EventEdit:
		m.flushTokens()
		m.transcript.ApplyEvent(m.streamingMsgID, ev)
		m.docPane.SetRefreshing(true)
		// Every edit event triggers its own full re-fetch; refreshes are
		// never coalesced.
		cmds = append(cmds, m.refreshDocumentCmd())
		m.refreshViewport()

	case api.EventDone:
		m.flushTokens()
		m.transcript.ApplyEvent(m.streamingMsgID, ev)
		m.streaming = false
		m.highlightCtl.ClearAfter(m.clearDelay())
		m.saveTranscript()
		m.refreshViewport()

	case api.EventError:
		m.flushTokens()
		m.transcript.ApplyEvent(m.streamingMsgID, ev)
		m.streaming = false
		m.highlightCtl.ClearNow()
		m.syncHighlight()
		m.toasts.AddError(ev.Message)
		m.saveTranscript()
		m.refreshViewport()
	}

	return m, tea.Batch(cmds...)
}

// handleStreamComplete settles a session whose transport ended cleanly
// without an explicit terminal event.
func (m Model) handleStreamComplete() (tea.Model, tea.Cmd) {
	m.flushTokens()
	if msg := m.transcript.Get(m.streamingMsgID); msg != nil && !msg.Sealed() {
		msg.Finalize("")
	}
	m.streaming = false
	m.highlightCtl.ClearAfter(m.clearDelay())
	m.saveTranscript()
	m.refreshViewport()
	return m, m.waitForEvent()
}

// handleStreamError settles a failed session: transport fault or
// non-success response status.
func (m Model) handleStreamError(err error) (tea.Model, tea.Cmd) {
	m.flushTokens()
	if msg := m.transcript.Get(m.streamingMsgID); msg != nil && !msg.Sealed() {
		msg.Fail(friendlyError(err))
	}
	m.streaming = false
	m.highlightCtl.ClearNow()
	m.syncHighlight()
	m.toasts.AddError(friendlyError(err))
	m.saveTranscript()
	m.refreshViewport()
	return m, m.waitForEvent()
}

// handleStreamTick flushes batched tokens at the capped frame rate.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.streaming {
		// Drain whatever is left, then stop ticking.
		m.flushTokens()
		m.refreshViewport()
		return m, nil
	}
	if content, ok := m.streamingBuffer.Flush(); ok {
		m.transcript.ApplyEvent(m.streamingMsgID, api.StreamEvent{
			Type:    api.EventToken,
			Content: content,
		})
		m.refreshViewport()
	}
	return m, streamTickCmd()
}

// flushTokens applies all batched tokens to the transcript immediately.
func (m *Model) flushTokens() {
	if content, ok := m.streamingBuffer.ForceFlush(); ok {
		m.transcript.ApplyEvent(m.streamingMsgID, api.StreamEvent{
			Type:    api.EventToken,
			Content: content,
		})
	}
}

// =============================================================================
// DOCUMENT STATE
// =============================================================================

// handleDocRefreshed replaces the local document copy wholesale.
func (m Model) handleDocRefreshed(doc api.Document) (tea.Model, tea.Cmd) {
	if m.docState == nil {
		m.docState = model.NewDocumentState(doc)
	} else {
		m.docState.Replace(doc)
	}
	m.docPane.SetRefreshing(false)
	m.docPane.SetDocument(m.docState)
	m.syncHighlight()
	return m, nil
}

// syncHighlight pushes the controller's pointer into the document pane.
func (m *Model) syncHighlight() {
	if line, ok := m.highlightCtl.Line(); ok {
		m.docPane.SetHighlight(line)
	} else {
		m.docPane.SetHighlight(0)
	}
}

// saveTranscript persists the settled history, when history is enabled.
func (m *Model) saveTranscript() {
	if m.store == nil {
		return
	}
	title := ""
	if m.docState != nil {
		title = m.docState.Doc.Title
	}
	// Persistence failures are not worth interrupting the user for.
	_ = m.store.Save(m.docID, title, m.transcript)
}

// clearDelay converts the configured highlight linger to a duration.
func (m *Model) clearDelay() time.Duration {
	return time.Duration(m.highlightDelay) * time.Millisecond
}

// friendlyError renders an error for the transcript and toasts.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, api.ErrServerUnavailable):
		return "cannot reach the server; is it running?"
	case errors.Is(err, api.ErrNotFound):
		return "document not found on the server"
	case errors.Is(err, context.DeadlineExceeded):
		return "the edit timed out"
	default:
		return err.Error()
	}
}
