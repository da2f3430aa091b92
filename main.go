// parley - a terminal client for chat backends.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/chat"
	"github.com/jeranaias/parley-tui/internal/cli"
	uichat "github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdChat:
		cli.HandleChat(args)

	case cli.CmdLogin:
		cli.HandleLogin(args)

	case cli.CmdLogout:
		cli.HandleLogout(args)

	case cli.CmdStatus:
		cli.HandleStatus(args)

	case cli.CmdConfig:
		cli.HandleConfig(args)

	case cli.CmdSessions:
		cli.HandleSessions(args)

	case cli.CmdVersion:
		cli.HandleVersion()

	case cli.CmdHelp:
		cli.HandleHelp()

	case cli.CmdTUI:
		runTUI(args)

	default:
		cli.PrintUsage()
		os.Exit(cli.ExitUsageError)
	}
}

// runTUI starts the full-screen Bubble Tea interface.
func runTUI(args cli.Args) {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, "parley: the TUI needs a terminal; try 'parley chat' or see 'parley help'")
		os.Exit(cli.ExitUsageError)
	}

	app, err := cli.BuildApp(args)
	if err != nil {
		cli.HandleErrorAndExit(err)
	}
	defer app.Close()

	orch := chat.New(app.Store, app.Client, app.Session)
	if args.Provider != "" {
		orch.WithProvider(args.Provider)
	}
	if args.Model != "" {
		orch.WithModel(args.Model)
	}

	model := uichat.New(styles.NewTheme(), orch, app.Session, app.Store)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(cli.ExitGeneralError)
	}
}
