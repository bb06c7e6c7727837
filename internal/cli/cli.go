// cli.go - Command dispatch and shared helpers for the draftpad CLI.
//
// The TUI is the default experience; these commands cover the scripting
// surface: listing and managing documents, importing and exporting files,
// checking server health, and a plain-terminal chat REPL.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/draftpad-tui/internal/ui/styles"
)

// =============================================================================
// BUILD INFO
// =============================================================================

// Build metadata, synced from main at startup via SetBuildInfo.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// SetBuildInfo records build metadata injected by the linker.
func SetBuildInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style for the chat REPL
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style for secondary text
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command / success style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// Section header style
	headerStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)
)

// =============================================================================
// PARSING
// =============================================================================

// Parse splits os.Args into a command name and its argument parser.
// An empty command means "open the TUI".
func Parse() (string, *ArgParser) {
	if len(os.Args) < 2 {
		return "", NewArgParser(nil)
	}
	return os.Args[1], NewArgParser(os.Args[2:])
}

// =============================================================================
// TTY HELPERS
// =============================================================================

// IsStdoutTTY reports whether stdout is an interactive terminal.
// Piped output gets plain text without styling.
func IsStdoutTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// init disables color when stdout is not a terminal so piped output
// stays clean.
func init() {
	if !IsStdoutTTY() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// truncateCell trims a table cell to the given display width.
func truncateCell(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// =============================================================================
// HELP AND VERSION
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(args *ArgParser) error {
	if args.BoolFlag("short") {
		fmt.Println(Version)
		return nil
	}
	fmt.Printf("draftpad %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
	return nil
}

// HandleHelp prints top-level usage.
func HandleHelp() error {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("draftpad") + infoStyle.Render(" - AI document editor"))
	fmt.Println()
	fmt.Println(headerStyle.Render("Usage"))
	fmt.Println("  draftpad [doc-id]                open the editor TUI")
	fmt.Println("  draftpad <command> [args]        run a command")
	fmt.Println()
	fmt.Println(headerStyle.Render("Commands"))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"edit <doc-id>", "Open a document in the TUI"},
		{"chat <doc-id>", "Edit a document from a plain-terminal REPL"},
		{"list", "List documents on the server"},
		{"create <title>", "Create an empty document"},
		{"show <doc-id>", "Print a document's content"},
		{"delete <doc-id>", "Delete a document"},
		{"import <path>", "Create a document from a local file"},
		{"export <doc-id> <path>", "Write a document to a local file"},
		{"health", "Check server availability"},
		{"version", "Show version information"},
		{"help", "Show this help"},
	}
	for _, c := range commands {
		fmt.Printf("  %s %s\n",
			commandStyle.Render(fmt.Sprintf("%-24s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Flags"))
	fmt.Println("  --server URL     Override the server URL")
	fmt.Println("  --json           Machine-readable output (list, show, health)")
	fmt.Println("  --force          Skip confirmation (delete)")
	fmt.Println()
	fmt.Println(infoStyle.Render("Config: ~/.draftpad/config.toml (env: DRAFTPAD_SERVER_URL)"))
	fmt.Println()
	return nil
}

// formatNumber renders an integer with thousands separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
