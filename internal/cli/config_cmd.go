// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handlers for parley CLI.
//
// Handles the "config" command and its subcommands.
//
// Examples:
//   parley config show                       Show all settings
//   parley config get api_base               Get a single setting
//   parley config set api_base URL           Set a setting
//   parley config path                       Print the config file path
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/parley-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	store, err := config.Open()
	if err != nil {
		HandleErrorAndExit(err)
	}

	switch args.Subcommand {
	case "", "show":
		handleConfigShow(store)

	case "get":
		handleConfigGet(store, args)

	case "set":
		handleConfigSet(store, args)

	case "path":
		fmt.Println(store.FilePath())

	default:
		HandleErrorAndExit(&ValidationError{
			Field:   "subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown config subcommand",
			Example: "parley config show",
		})
	}
}

func handleConfigShow(store *config.Store) {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Configuration"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("File:"),
		commandStyle.Render(store.FilePath()))
	fmt.Println()

	for _, key := range config.Keys() {
		value, err := store.Get(key)
		if err != nil {
			continue
		}
		if value == "" {
			value = infoStyle.Render("(unset)")
		}
		fmt.Printf("  %s = %s\n",
			commandStyle.Render(fmt.Sprintf("%-12s", key)),
			value)
	}
	fmt.Println()
}

func handleConfigGet(store *config.Store, args Args) {
	if args.ConfigKey == "" {
		HandleErrorAndExit(&ValidationError{
			Field:   "key",
			Value:   "",
			Reason:  "config get requires a key",
			Example: "parley config get api_base",
		})
	}

	value, err := store.Get(args.ConfigKey)
	if err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			HandleErrorAndExit(&NotFoundError{
				Resource: "config key",
				ID:       args.ConfigKey,
			})
		}
		HandleErrorAndExit(err)
	}

	fmt.Println(value)
}

func handleConfigSet(store *config.Store, args Args) {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		HandleErrorAndExit(&ValidationError{
			Field:   "key/value",
			Value:   strings.TrimSpace(args.ConfigKey + " " + args.ConfigVal),
			Reason:  "config set requires a key and a value",
			Example: "parley config set api_base https://api.example.com",
		})
	}

	if err := store.Set(args.ConfigKey, args.ConfigVal); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			HandleErrorAndExit(&NotFoundError{
				Resource: "config key",
				ID:       args.ConfigKey,
			})
		}
		HandleErrorAndExit(err)
	}

	fmt.Printf("%s %s = %s\n",
		commandStyle.Render("[OK]"),
		args.ConfigKey,
		args.ConfigVal)
}
