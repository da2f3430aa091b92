// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions_cmd.go - Saved transcript command handlers for parley CLI.
//
// Handles the "sessions" command and its subcommands over the local
// transcript database.
//
// Examples:
//   parley sessions                          List saved transcripts
//   parley sessions list                     List saved transcripts
//   parley sessions search "query"           Search titles and content
//   parley sessions show <id|index>          Show a transcript
//   parley sessions export <id> --format md  Export a transcript
//   parley sessions delete <id>              Delete a transcript
//   parley sessions clear                    Delete all transcripts
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/storage"
	"github.com/jeranaias/parley-tui/internal/util"
)

// HandleSessions handles the "sessions" command.
func HandleSessions(args Args) {
	store, err := storage.Open()
	if err != nil {
		HandleErrorAndExit(err)
	}
	defer store.Close()

	switch args.Subcommand {
	case "", "list":
		handleSessionsList(store, args)

	case "search":
		handleSessionsSearch(store, args)

	case "show":
		handleSessionsShow(store, args)

	case "export":
		handleSessionsExport(store, args)

	case "delete", "rm":
		handleSessionsDelete(store, args)

	case "clear":
		handleSessionsClear(store, args)

	default:
		HandleErrorAndExit(&ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown sessions subcommand",
			Example: "parley sessions list",
		})
	}
}

// =============================================================================
// LIST / SEARCH
// =============================================================================

func handleSessionsList(store *storage.Store, args Args) {
	metas, err := store.List()
	if err != nil {
		HandleErrorAndExit(err)
	}
	printSessionList(metas, args)
}

func handleSessionsSearch(store *storage.Store, args Args) {
	if args.Query == "" {
		HandleErrorAndExit(&ValidationError{
			Field:   "query",
			Value:   "",
			Reason:  "search requires a query",
			Example: "parley sessions search \"error handling\"",
		})
	}

	metas, err := store.Search(args.Query)
	if err != nil {
		HandleErrorAndExit(err)
	}
	printSessionList(metas, args)
}

func printSessionList(metas []storage.ConversationMeta, args Args) {
	if args.JSON {
		type metaJSON struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			UpdatedAt string `json:"updated_at"`
			TurnCount int    `json:"turn_count"`
			Preview   string `json:"preview,omitempty"`
		}
		out := make([]metaJSON, 0, len(metas))
		for _, m := range metas {
			out = append(out, metaJSON{
				ID:        m.ID,
				Title:     m.Title,
				UpdatedAt: m.UpdatedAt.Format("2006-01-02 15:04"),
				TurnCount: m.TurnCount,
				Preview:   m.Preview,
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			HandleErrorAndExit(err)
		}
		fmt.Println(string(data))
		return
	}

	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("No saved transcripts"))
		return
	}

	fmt.Println()
	fmt.Printf("%s (%d)\n", summaryHeaderStyle.Render("Saved Transcripts"), len(metas))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, m := range metas {
		fmt.Printf("  %s %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%2d.", i+1)),
			util.TruncateRunes(m.Title, 50),
			infoStyle.Render(fmt.Sprintf("(%d turns, %s)",
				m.TurnCount,
				m.UpdatedAt.Format("2006-01-02 15:04"))))
		if m.Preview != "" {
			fmt.Printf("      %s\n", infoStyle.Render(m.Preview))
		}
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Use 'parley sessions show <number>' to view a transcript"))
	fmt.Println()
}

// =============================================================================
// SHOW / EXPORT
// =============================================================================

// resolveConversation loads a transcript by list index (1-based) or by ID.
func resolveConversation(store *storage.Store, ref string) (*model.Conversation, error) {
	if ref == "" {
		return nil, &ValidationError{
			Field:   "id",
			Value:   "",
			Reason:  "a transcript id or list number is required",
			Example: "parley sessions show 1",
		}
	}

	if index, err := strconv.Atoi(ref); err == nil {
		conv, err := store.LoadByIndex(index - 1)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, &NotFoundError{Resource: "transcript", ID: ref}
			}
			return nil, err
		}
		return conv, nil
	}

	conv, err := store.Load(ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Resource: "transcript", ID: ref}
		}
		return nil, err
	}
	return conv, nil
}

func handleSessionsShow(store *storage.Store, args Args) {
	conv, err := resolveConversation(store, args.Query)
	if err != nil {
		HandleErrorAndExit(err)
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render(conv.GetTitle()))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for _, turn := range conv.Turns {
		label := turn.Role.DisplayName()
		if turn.Diagnostic {
			fmt.Printf("%s\n", diagnosticStyle.Render(turn.Content))
		} else {
			fmt.Printf("%s %s\n",
				promptStyle.Render(label+":"),
				turn.Content)
		}
		fmt.Println()
	}
}

func handleSessionsExport(store *storage.Store, args Args) {
	conv, err := resolveConversation(store, args.Query)
	if err != nil {
		HandleErrorAndExit(err)
	}

	format := "md"
	parser := NewArgParser(args.Raw)
	if f := parser.FlagOrDefault("--format", "md"); f != "" {
		format = strings.ToLower(f)
	}

	switch format {
	case "md", "markdown":
		fmt.Print(storage.ExportMarkdown(conv))

	case "json":
		data, err := storage.ExportJSON(conv)
		if err != nil {
			HandleErrorAndExit(err)
		}
		fmt.Println(string(data))

	default:
		HandleErrorAndExit(&ValidationError{
			Field:   "--format",
			Value:   format,
			Reason:  "supported formats are md and json",
			Example: "parley sessions export 1 --format json",
		})
	}
}

// =============================================================================
// DELETE / CLEAR
// =============================================================================

func handleSessionsDelete(store *storage.Store, args Args) {
	conv, err := resolveConversation(store, args.Query)
	if err != nil {
		HandleErrorAndExit(err)
	}

	if err := store.Delete(conv.ID); err != nil {
		HandleErrorAndExit(err)
	}

	if !args.Quiet {
		fmt.Printf("%s Deleted %s\n",
			commandStyle.Render("[OK]"),
			util.TruncateRunes(conv.GetTitle(), 50))
	}
}

func handleSessionsClear(store *storage.Store, args Args) {
	metas, err := store.List()
	if err != nil {
		HandleErrorAndExit(err)
	}
	if len(metas) == 0 {
		fmt.Println(infoStyle.Render("No saved transcripts"))
		return
	}

	if err := store.Clear(); err != nil {
		HandleErrorAndExit(err)
	}

	if !args.Quiet {
		fmt.Printf("%s Deleted %d transcript(s)\n",
			commandStyle.Render("[OK]"),
			len(metas))
	}
}
