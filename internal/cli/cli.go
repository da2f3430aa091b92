// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for parley.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdLogin
	CmdLogout
	CmdStatus
	CmdConfig
	CmdSessions
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	JSON     bool
	Provider string
	Model    string
	APIBase  string

	// Command-specific
	Query      string
	ConfigKey  string
	ConfigVal  string
	Subcommand string
	Username   string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `parley - terminal client for chat backends

Parley is a terminal chat client that talks to an HTTP chat API with
bearer-token authentication.

Usage:
  parley                     Start TUI (default)
  parley chat                Interactive chat REPL
  parley login               Authenticate and store the session token
  parley logout              Discard the stored session token
  parley status, s           Show connection and session status
  parley config [show|get|set]  Configuration
  parley sessions [subcommand]  Saved transcript management

Session Commands:
  parley sessions list              List saved transcripts
  parley sessions show <index>      Show a saved transcript
  parley sessions export <index>    Export a transcript
    --format json|md                Export format (default: md)
  parley sessions delete <index>    Delete a saved transcript
  parley sessions clear             Delete all saved transcripts

Config Commands:
  parley config show                Show current configuration
  parley config get <key>           Show a single value
  parley config set <key> <value>   Set a value

  Keys: api_base, provider, model, token_path

Interactive Commands (during chat):
  /help, /h           Show available commands
  /login              Authenticate (prompts for credentials)
  /logout             Discard the session token
  /clear, /c          Clear conversation history
  /status, /s         Show session status
  /history            Show conversation history
  /save               Save the transcript
  /quit, /q           Exit chat
  Ctrl+D              Exit chat

Global Flags:
  --api-base URL  Override the API base URL
  --provider NAME Override the provider preference
  --model NAME    Override the model preference
  --user NAME     Login identifier (login command)
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Output in JSON format

Examples:
  parley                              Start TUI interface
  parley chat                         Start interactive chat
  parley login --user a@b.com         Authenticate
  parley chat --model gpt-4o-mini     Chat with a model preference
  parley config set api_base https://api.example.com
  parley sessions export 1 --format md

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("parley version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments (split out for testing).
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	// No remaining args defaults to the TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "login":
		return CmdLogin, parsedArgs

	case "logout":
		return CmdLogout, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "session", "sessions":
		parseSessionArgs(&parsedArgs, remaining)
		return CmdSessions, parsedArgs

	// "-v" is taken by --verbose and never reaches command dispatch
	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command defaults to the TUI, keeping the arg around
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--api-base":
			if i+1 < len(args) {
				i++
				parsedArgs.APIBase = args[i]
			}
		case "--provider":
			if i+1 < len(args) {
				i++
				parsedArgs.Provider = args[i]
			}
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--user", "-u":
			if i+1 < len(args) {
				i++
				parsedArgs.Username = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--api-base="):
				parsedArgs.APIBase = strings.TrimPrefix(arg, "--api-base=")
			case strings.HasPrefix(arg, "--provider="):
				parsedArgs.Provider = strings.TrimPrefix(arg, "--provider=")
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--user="):
				parsedArgs.Username = strings.TrimPrefix(arg, "--user=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// parseSessionArgs parses session command specific arguments.
// The remaining positionals after the subcommand form the query: a
// transcript id or list number for show/export/delete, free text for
// search.
func parseSessionArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Subcommand = parser.Subcommand()
	args.Query = JoinPositionalArgs(parser, 1)
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		DisplayError(err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
