// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for parley.
//
// This package implements all CLI commands for the parley application,
// covering both the interactive chat REPL and the non-interactive
// management commands.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Unified flag/positional parsing for subcommands
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	case cli.CmdLogin:
//	    cli.HandleLogin(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - chat: Interactive chat session (line-editor REPL)
//   - login: Authenticate against the backend token endpoint
//   - logout: Discard the stored session token
//   - status: Show backend and session state
//   - config: Configuration management (show/get/set/path)
//   - sessions: Saved transcript management (list/search/show/export/delete)
//
// Read-only commands support a --json flag for scripting.
package cli
