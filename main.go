// draftpad - A terminal client for an AI document editor.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/cli"
	"github.com/jeranaias/draftpad-tui/internal/config"
	"github.com/jeranaias/draftpad-tui/internal/storage"
	"github.com/jeranaias/draftpad-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.SetBuildInfo(Version, GitCommit, BuildDate)
}

func main() {
	cmd, args := cli.Parse()

	// A leading flag means no command was given: reparse everything as
	// flags for the TUI (e.g. "draftpad --server http://host:8000").
	if strings.HasPrefix(cmd, "-") {
		cmd = ""
		args = cli.NewArgParser(os.Args[1:])
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config unusable (%v), using defaults\n", err)
		cfg = config.Default()
	}

	switch cmd {
	case "":
		runTUI(cfg, "", args)
	case "edit":
		runTUI(cfg, args.Positional(0), args)
	case "chat":
		exitOnErr(cli.HandleChat(cfg, args))
	case "list", "ls":
		exitOnErr(cli.HandleList(cfg, args))
	case "create", "new":
		exitOnErr(cli.HandleCreate(cfg, args))
	case "show", "cat":
		exitOnErr(cli.HandleShow(cfg, args))
	case "delete", "rm":
		exitOnErr(cli.HandleDelete(cfg, args))
	case "import":
		exitOnErr(cli.HandleImport(cfg, args))
	case "export":
		exitOnErr(cli.HandleExport(cfg, args))
	case "health":
		exitOnErr(cli.HandleHealth(cfg, args))
	case "version":
		exitOnErr(cli.HandleVersion(args))
	case "help":
		exitOnErr(cli.HandleHelp())
	default:
		// Bare document id: open it in the TUI.
		runTUI(cfg, cmd, args)
	}
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the editor interface for one document.
func runTUI(cfg *config.Config, docID string, args *cli.ArgParser) {
	// The API client logs through the standard logger; in the TUI that
	// output must go to a file, not the alternate screen.
	redirectLogs()

	client := cli.NewAPIClient(cfg, args)

	docID, err := resolveDocument(cfg, client, docID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var store *storage.Store
	if cfg.History.Enabled {
		if dir, err := cfg.HistoryDir(); err == nil {
			store, _ = storage.NewStore(dir, cfg.History.MaxTranscripts)
		}
	}

	m := chat.New(cfg, client, store, docID)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Hot-reload config edits while the editor is open.
	if path, err := config.Path(); err == nil {
		watcher, err := config.NewWatcher(path, func(next *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Cfg: next})
		})
		if err == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running draftpad: %v\n", err)
		os.Exit(1)
	}
}

// resolveDocument picks the document to open: the given id, else the most
// recently updated document on the server, else a fresh untitled one.
func resolveDocument(cfg *config.Config, client *api.Client, docID string) (string, error) {
	if docID != "" {
		return docID, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		return "", err
	}

	if len(docs) == 0 {
		doc, err := client.CreateDocument(ctx, api.DocumentCreate{Title: "Untitled"})
		if err != nil {
			return "", err
		}
		return doc.ID, nil
	}

	latest := docs[0]
	for _, doc := range docs[1:] {
		if doc.UpdatedAt.After(latest.UpdatedAt) {
			latest = doc
		}
	}
	return latest.ID, nil
}

// redirectLogs sends standard-logger output to ~/.draftpad/draftpad.log.
// Discarded when the directory cannot be created.
func redirectLogs() {
	log.SetOutput(io.Discard)

	path, err := config.Path()
	if err != nil {
		return
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "draftpad.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	log.SetOutput(f)
}
