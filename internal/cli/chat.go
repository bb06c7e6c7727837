// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal edit REPL for the draftpad CLI.
//
// Handles the "draftpad chat <doc-id>" command: the same streaming edit
// session the TUI runs, but printed straight to the terminal. Useful over
// slow SSH links and in terminals where the alt screen is unwelcome.
//
// Interactive commands (during chat):
//   /help, /h           Show available commands
//   /show               Print the current document content
//   /doc                Show document info
//   /quit, /q           Exit
//   Ctrl+C              Cancel the in-flight edit
//   Ctrl+D              Exit
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/config"
	"github.com/jeranaias/draftpad-tui/internal/model"
	"github.com/jeranaias/draftpad-tui/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the edit REPL.
// Supports arrow keys for history navigation.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	// History lives next to the config file; temp dir when the home
	// directory cannot be resolved.
	historyDir := os.TempDir()
	if p, err := config.Path(); err == nil {
		historyDir = filepath.Dir(p)
	}
	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(historyDir, "cli_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads prompt history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists prompt history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for one REPL run against one document.
type ChatSession struct {
	Config     *config.Config
	Client     *api.Client
	Controller *session.Controller
	Transcript *model.Transcript

	Doc       *api.Document
	StartTime time.Time
	Edits     int

	InputCLI *ChatCLI
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command: an interactive REPL where each
// line is an edit prompt streamed through the document server.
func HandleChat(cfg *config.Config, args *ArgParser) error {
	docID := args.Positional(0)
	if docID == "" {
		docID = args.Flag("doc")
	}
	if docID == "" {
		return errors.New("usage: draftpad chat <doc-id>")
	}

	client := NewAPIClient(cfg, args)

	ctx, cancel := commandContext(cfg)
	doc, err := client.GetDocument(ctx, docID)
	cancel()
	if err != nil {
		return err
	}

	sess := &ChatSession{
		Config:     cfg,
		Client:     client,
		Controller: session.NewController(client, cfg.StreamTimeout()),
		Transcript: model.NewTranscript(),
		Doc:        doc,
		StartTime:  time.Now(),
		InputCLI:   NewChatCLI(),
	}
	defer sess.InputCLI.Close()

	printChatWelcome(sess)

	// Ctrl+C during a stream cancels that edit; at the prompt liner turns
	// it into ErrPromptAborted.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		input, err := sess.InputCLI.ReadInput(promptStyle.Render("draftpad> "))
		if err != nil {
			// ErrPromptAborted (Ctrl+C) or EOF (Ctrl+D): exit gracefully.
			fmt.Println()
			printChatSummary(sess)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := handleSlashCommand(input, sess)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				printChatSummary(sess)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printChatSummary(sess)
			return nil
		}

		if err := streamPrompt(sess, input, sigChan); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// PROMPT PROCESSING
// =============================================================================

// streamPrompt runs one edit exchange and prints its events as they arrive.
// Blocks until the session reaches a terminal state or the user cancels.
func streamPrompt(sess *ChatSession, prompt string, sigChan <-chan os.Signal) error {
	sess.Transcript.AddUser(prompt)
	assistant := sess.Transcript.StartAssistant()

	done := make(chan struct{})
	edits := 0
	thinkingShown := false

	cb := session.Callbacks{
		OnEvent: func(ev api.StreamEvent) {
			switch ev.Type {
			case api.EventToken:
				if thinkingShown {
					fmt.Fprint(os.Stderr, "\r\033[K")
					thinkingShown = false
				}
				fmt.Print(ev.Content)
			case api.EventThinking:
				fmt.Fprintf(os.Stderr, "\r\033[K%s", infoStyle.Render("["+ev.Content+"]"))
				thinkingShown = true
			case api.EventHighlight:
				// No document pane here; highlights only matter in the TUI.
			case api.EventEdit:
				edits++
				fmt.Printf("\n%s %s\n", commandStyle.Render("✎"), ev.Operation.Describe())
			case api.EventDone:
				if ev.Summary != "" {
					fmt.Printf("\n\n%s %s\n", commandStyle.Render("✓"), ev.Summary)
				}
				close(done)
			case api.EventError:
				fmt.Fprintf(os.Stderr, "\n%s %s\n", errorStyle.Render("[Error]"), ev.Message)
				close(done)
			}
			sess.Transcript.ApplyEvent(assistant.ID, ev)
		},
		OnComplete: func() {
			close(done)
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "\n%s %v\n", errorStyle.Render("[Error]"), err)
			close(done)
		},
	}

	active, err := sess.Controller.Start(sess.Doc.ID, assistant.ID, prompt, cb)
	if err != nil {
		return err
	}

	fmt.Println()

	select {
	case <-done:
	case <-sigChan:
		active.Cancel()
		fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
	}

	fmt.Println()
	sess.Edits += edits

	// The document changed server-side; re-fetch so /show and /doc reflect it.
	if edits > 0 && !active.Cancelled() {
		refreshDocument(sess)
	}
	return nil
}

// refreshDocument re-fetches the document after edits landed.
func refreshDocument(sess *ChatSession) {
	ctx, cancel := commandContext(sess.Config)
	defer cancel()

	doc, err := sess.Client.GetDocument(ctx, sess.Doc.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s refresh failed: %v\n", warningStyle.Render("[Warning]"), err)
		return
	}
	sess.Doc = doc
	lines := strings.Count(doc.Content, "\n") + 1
	fmt.Fprintln(os.Stderr, infoStyle.Render(
		fmt.Sprintf("[document updated: %d line(s)]", lines)))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (keepGoing, error) where keepGoing=false means exit.
func handleSlashCommand(cmd string, sess *ChatSession) (bool, error) {
	switch strings.ToLower(strings.Fields(cmd)[0]) {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/show":
		fmt.Println()
		fmt.Println(sess.Doc.Content)
		fmt.Println()
		return true, nil

	case "/doc":
		fmt.Println()
		fmt.Printf("  %s %s\n", infoStyle.Render("Title:"), sess.Doc.Title)
		fmt.Printf("  %s %s\n", infoStyle.Render("ID:"), sess.Doc.ID)
		fmt.Printf("  %s %s\n", infoStyle.Render("Updated:"),
			sess.Doc.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Println()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", cmd)
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

func printChatWelcome(sess *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("draftpad chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", infoStyle.Render("Document:"), commandStyle.Render(sess.Doc.Title))
	fmt.Printf("%s %s\n", infoStyle.Render("Server:"), sess.Client.BaseURL())
	fmt.Println()
	fmt.Println(infoStyle.Render("Describe an edit and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func printChatHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/show", "Print the current document content"},
		{"/doc", "Show document info"},
		{"/quit, /q", "Exit"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the in-flight edit, Ctrl+D exits"))
	fmt.Println()
}

func printChatSummary(sess *ChatSession) {
	if sess.Transcript.Len() == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(sess.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(headerStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %d\n", infoStyle.Render("Prompts:"), sess.Transcript.Len()/2)
	fmt.Printf("  %s %s\n", infoStyle.Render("Edits:"), formatNumber(sess.Edits))
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"), elapsed.String())
	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
