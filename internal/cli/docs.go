// docs.go - Document management commands for the draftpad CLI.
//
// Commands: list, create, show, delete, import, export, health.
// All of them talk to the document server through internal/api and
// honor --server and --json where it makes sense.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/draftpad-tui/internal/api"
	"github.com/jeranaias/draftpad-tui/internal/config"
)

// NewAPIClient builds an API client from config, letting --server override
// the configured URL.
func NewAPIClient(cfg *config.Config, args *ArgParser) *api.Client {
	url := args.FlagOrDefault("server", cfg.Server.URL)
	return api.NewClient(url).
		WithTimeout(cfg.Timeout()).
		WithRateLimit(cfg.Server.RateLimitPerSec, 5)
}

func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Timeout())
}

// =============================================================================
// LIST
// =============================================================================

// HandleList handles the "list" command.
func HandleList(cfg *config.Config, args *ArgParser) error {
	client := NewAPIClient(cfg, args)
	ctx, cancel := commandContext(cfg)
	defer cancel()

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		return err
	}

	if args.BoolFlag("json") {
		return json.NewEncoder(os.Stdout).Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Println(infoStyle.Render("No documents. Create one with: draftpad create <title>"))
		return nil
	}

	fmt.Println()
	fmt.Printf("  %s  %s  %s\n",
		headerStyle.Render(fmt.Sprintf("%-36s", "ID")),
		headerStyle.Render(fmt.Sprintf("%-30s", "TITLE")),
		headerStyle.Render("UPDATED"))
	for _, doc := range docs {
		fmt.Printf("  %-36s  %-30s  %s\n",
			doc.ID,
			truncateCell(doc.Title, 30),
			infoStyle.Render(doc.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render(fmt.Sprintf("%d document(s)", len(docs))))
	return nil
}

// =============================================================================
// CREATE / SHOW / DELETE
// =============================================================================

// HandleCreate handles the "create" command. The title is all remaining
// positional args joined, so quoting is optional.
func HandleCreate(cfg *config.Config, args *ArgParser) error {
	title := JoinPositionalArgs(args, 0)
	if title == "" {
		return errors.New("usage: draftpad create <title>")
	}

	client := NewAPIClient(cfg, args)
	ctx, cancel := commandContext(cfg)
	defer cancel()

	doc, err := client.CreateDocument(ctx, api.DocumentCreate{Title: title})
	if err != nil {
		return err
	}

	fmt.Printf("%s Created %q\n", commandStyle.Render("[OK]"), doc.Title)
	fmt.Printf("  id: %s\n", doc.ID)
	fmt.Printf("  open it with: draftpad edit %s\n", doc.ID)
	return nil
}

// HandleShow handles the "show" command, printing a document's content
// to stdout.
func HandleShow(cfg *config.Config, args *ArgParser) error {
	id := args.Positional(0)
	if id == "" {
		return errors.New("usage: draftpad show <doc-id>")
	}

	client := NewAPIClient(cfg, args)
	ctx, cancel := commandContext(cfg)
	defer cancel()

	doc, err := client.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if args.BoolFlag("json") {
		return json.NewEncoder(os.Stdout).Encode(doc)
	}

	fmt.Println(doc.Content)
	return nil
}

// HandleDelete handles the "delete" command. Asks for confirmation on a
// TTY unless --force is given.
func HandleDelete(cfg *config.Config, args *ArgParser) error {
	id := args.Positional(0)
	if id == "" {
		return errors.New("usage: draftpad delete <doc-id>")
	}

	client := NewAPIClient(cfg, args)
	ctx, cancel := commandContext(cfg)
	defer cancel()

	doc, err := client.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if !args.BoolFlag("force") && IsStdoutTTY() {
		fmt.Printf("%s Delete %q? [y/N] ", warningStyle.Render("[?]"), doc.Title)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println(infoStyle.Render("Aborted."))
			return nil
		}
	}

	if err := client.DeleteDocument(ctx, id); err != nil {
		return err
	}
	fmt.Printf("%s Deleted %q\n", commandStyle.Render("[OK]"), doc.Title)
	return nil
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// HandleImport handles the "import" command.
func HandleImport(cfg *config.Config, args *ArgParser) error {
	path := args.Positional(0)
	if path == "" {
		return errors.New("usage: draftpad import <path>")
	}

	client := NewAPIClient(cfg, args)
	ctx, cancel := commandContext(cfg)
	defer cancel()

	doc, err := client.ImportFile(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("%s Imported %s as %q\n", commandStyle.Render("[OK]"), path, doc.Title)
	fmt.Printf("  id: %s\n", doc.ID)
	return nil
}

// HandleExport handles the "export" command.
func HandleExport(cfg *config.Config, args *ArgParser) error {
	id := args.Positional(0)
	path := args.Positional(1)
	if id == "" || path == "" {
		return errors.New("usage: draftpad export <doc-id> <path>")
	}

	client := NewAPIClient(cfg, args)
	ctx, cancel := commandContext(cfg)
	defer cancel()

	if err := client.ExportFile(ctx, id, path); err != nil {
		return err
	}
	fmt.Printf("%s Exported %s to %s\n", commandStyle.Render("[OK]"), id, path)
	return nil
}

// =============================================================================
// HEALTH
// =============================================================================

// HandleHealth handles the "health" command.
func HandleHealth(cfg *config.Config, args *ArgParser) error {
	client := NewAPIClient(cfg, args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Health(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	if args.BoolFlag("json") {
		status := map[string]any{
			"server":     client.BaseURL(),
			"healthy":    err == nil,
			"latency_ms": elapsed.Milliseconds(),
		}
		if err != nil {
			status["error"] = err.Error()
		}
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	if err != nil {
		fmt.Printf("%s %s is unreachable: %v\n",
			errorStyle.Render("[DOWN]"), client.BaseURL(), err)
		return err
	}
	fmt.Printf("%s %s responded in %s\n",
		commandStyle.Render("[UP]"), client.BaseURL(), elapsed)
	return nil
}
