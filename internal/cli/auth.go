// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - Authentication command handlers for parley CLI.
//
// Handles the "login", "logout", and "status" commands.
//
// Examples:
//   parley login                   Prompt for username and password
//   parley login --user alice      Prompt for password only
//   parley logout                  Discard the stored session token
//   parley status                  Show backend and session state
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin handles the "login" command.
func HandleLogin(args Args) {
	if err := RequiresTTY("login"); err != nil {
		HandleErrorAndExit(err)
	}

	app, err := BuildApp(args)
	if err != nil {
		HandleErrorAndExit(err)
	}
	defer app.Close()

	identifier := args.Username
	if identifier == "" {
		identifier, err = promptLine("Username: ")
		if err != nil {
			HandleErrorAndExit(err)
		}
	}
	if identifier == "" {
		HandleErrorAndExit(&ValidationError{
			Field:   "username",
			Value:   "",
			Reason:  "username cannot be empty",
			Example: "parley login --user alice",
		})
	}

	secret, err := promptSecret("Password: ")
	if err != nil {
		HandleErrorAndExit(err)
	}

	if err := app.Session.Login(context.Background(), identifier, secret); err != nil {
		HandleErrorAndExit(err)
	}

	if !args.Quiet {
		fmt.Printf("%s Logged in as %s\n",
			commandStyle.Render("[OK]"),
			identifier)
	}
}

// HandleLogout handles the "logout" command.
func HandleLogout(args Args) {
	app, err := BuildApp(args)
	if err != nil {
		HandleErrorAndExit(err)
	}
	defer app.Close()

	wasAuthenticated := app.Session.IsAuthenticated()

	if err := app.Session.Logout(); err != nil {
		HandleErrorAndExit(err)
	}

	if !args.Quiet {
		if wasAuthenticated {
			fmt.Printf("%s Logged out\n", commandStyle.Render("[OK]"))
		} else {
			fmt.Println(infoStyle.Render("No active session"))
		}
	}
}

// =============================================================================
// STATUS
// =============================================================================

// statusReport is the JSON shape emitted by "status --json".
type statusReport struct {
	APIBase       string `json:"api_base"`
	Provider      string `json:"provider,omitempty"`
	Model         string `json:"model,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// HandleStatus handles the "status" command.
func HandleStatus(args Args) {
	app, err := BuildApp(args)
	if err != nil {
		HandleErrorAndExit(err)
	}
	defer app.Close()

	report := statusReport{
		APIBase:       app.Store.APIBase(),
		Provider:      app.Store.Provider(),
		Model:         app.Store.Model(),
		Authenticated: app.Session.IsAuthenticated(),
	}

	if args.JSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			HandleErrorAndExit(err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("parley status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Backend:"),
		commandStyle.Render(report.APIBase))
	if report.Provider != "" {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Provider:"),
			commandStyle.Render(report.Provider))
	}
	if report.Model != "" {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Model:"),
			commandStyle.Render(report.Model))
	}
	if report.Authenticated {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Session:"),
			commandStyle.Render("Authenticated"))
	} else {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Session:"),
			warningStyle.Render("Not logged in"))
	}
	fmt.Println()
}

// =============================================================================
// PROMPT HELPERS
// =============================================================================

// promptLine reads a single line from stdin with a visible prompt.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a line without echoing it to the terminal.
// SECURITY: Passwords are never echoed or written to shell history.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}
