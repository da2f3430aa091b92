// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for parley CLI.
//
// Handles the "parley chat" command which provides an interactive REPL
// for conversing with the chat backend.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   parley chat                        Start interactive chat
//   parley chat --model gpt-4o-mini    Use a model preference
//   parley chat --api-base URL         Talk to a different backend
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /login              Authenticate (prompts for credentials)
//   /logout             Discard the session token
//   /clear, /c          Clear conversation history
//   /status, /s         Show session status
//   /history            Show conversation history
//   /save               Save the transcript
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/chat"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/storage"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Diagnostic turn style
	diagnosticStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	// Session summary header
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.Dir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
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

// ReadSecret reads a line without echoing it (passwords).
func (c *ChatCLI) ReadSecret(prompt string) (string, error) {
	return c.line.PasswordPrompt(prompt)
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
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

// PromptCredentials implements chat.CredentialPrompter using the REPL's
// own line editor. The password is never echoed or added to history.
func (c *ChatCLI) PromptCredentials(ctx context.Context) (string, string, error) {
	fmt.Println(infoStyle.Render("Authentication required."))

	identifier, err := c.line.Prompt("Username: ")
	if err != nil {
		return "", "", err
	}
	secret, err := c.ReadSecret("Password: ")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(identifier), secret, nil
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	App   *App
	Orch  *chat.Orchestrator
	Quiet bool

	// Tracking
	StartTime time.Time
	SendCount int

	// Input history handler
	// USABILITY: Provides readline-like input with history
	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session over the wired app stack.
func NewChatSession(app *App, args Args) *ChatSession {
	input := NewChatCLI()

	orch := app.orchestrator(args)
	orch.WithPrompter(input)

	return &ChatSession{
		App:       app,
		Orch:      orch,
		Quiet:     args.Quiet,
		StartTime: time.Now(),
		InputCLI:  input,
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	app, err := BuildApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	session := NewChatSession(app, args)
	defer session.InputCLI.Close()

	if !session.Quiet {
		printWelcome(session)
	}

	// Main REPL loop using liner for input history
	// USABILITY: Provides readline-like line editing and history navigation
	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("parley> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				// Ctrl+C at the prompt: hint instead of exiting
				fmt.Println(infoStyle.Render("(Use /quit or Ctrl+D to exit)"))
				continue
			}
			// EOF (Ctrl+D) or a closed terminal: exit gracefully
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Handle slash commands
		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				DisplayError(err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		// Handle exit/quit without slash
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			DisplayError(err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage runs one send operation and prints the settled outcome.
func processMessage(session *ChatSession, input string) error {
	ctx := context.Background()

	status, err := session.Orch.Send(ctx, input)
	if err != nil {
		if errors.Is(err, chat.ErrBusy) {
			fmt.Println(warningStyle.Render("[A send is already in progress]"))
			return nil
		}
		return err
	}

	switch status {
	case chat.SendNoOp:
		return nil

	case chat.SendAwaitingAuth:
		// Parked until a login supplies credentials. With the REPL's
		// prompter wired an aborted prompt settles as a diagnostic
		// instead, so this is the no-prompter path.
		fmt.Println(warningStyle.Render("[Login required; message kept. Use /login and it will be resent.]"))
		return nil
	}

	session.SendCount++
	printLastTurn(session)
	return nil
}

// printLastTurn renders the turn the orchestrator just settled.
func printLastTurn(session *ChatSession) {
	last := session.Orch.Conversation().Last()
	if last == nil || last.Role != model.RoleAssistant {
		return
	}

	fmt.Println()
	if last.Diagnostic {
		fmt.Println(diagnosticStyle.Render(last.Content))
	} else {
		displayResponse(last.Content)
	}
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/login":
		return true, handleInlineLogin(session)

	case "/logout":
		if err := session.App.Session.Logout(); err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[Logged out]"))
		return true, nil

	case "/clear", "/c":
		session.Orch.Reset()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/save":
		return true, handleSave(session)

	case "/quit", "/q", "/exit":
		return false, nil

	case "/":
		printChatHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleInlineLogin authenticates and resumes a pending send if one is
// waiting on credentials.
func handleInlineLogin(session *ChatSession) error {
	ctx := context.Background()

	identifier, secret, err := session.InputCLI.PromptCredentials(ctx)
	if err != nil {
		return err
	}
	if err := session.App.Session.Login(ctx, identifier, secret); err != nil {
		return err
	}
	fmt.Println(commandStyle.Render("[Logged in]"))

	// A send parked in AwaitingAuth is resent now, without retyping.
	if session.Orch.State() == chat.StateAwaitingAuth {
		status, err := session.Orch.Resume(ctx)
		if err != nil {
			return err
		}
		if status == chat.SendCompleted {
			session.SendCount++
			printLastTurn(session)
		}
	}
	return nil
}

// handleSave persists the current transcript.
func handleSave(session *ChatSession) error {
	conv := session.Orch.Snapshot()
	if conv.IsEmpty() {
		fmt.Println(infoStyle.Render("[Nothing to save]"))
		return nil
	}

	store, err := storage.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(conv)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", commandStyle.Render("[Saved]"), infoStyle.Render(id))
	return nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(session *ChatSession) {
	store := session.App.Store

	fmt.Println()
	fmt.Println(welcomeStyle.Render("parley interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Backend:"),
		commandStyle.Render(store.APIBase()))

	if provider := store.Provider(); provider != "" {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Provider:"),
			commandStyle.Render(provider))
	}
	if m := store.Model(); m != "" {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Model:"),
			commandStyle.Render(m))
	}

	if session.App.Session.IsAuthenticated() {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Session:"),
			commandStyle.Render("Authenticated"))
	} else {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Session:"),
			warningStyle.Render("Not logged in (you will be prompted on first send)"))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/login", "Authenticate with the backend"},
		{"/logout", "Discard the session token"},
		{"/clear, /c", "Clear conversation history"},
		{"/status, /s", "Show session status"},
		{"/history", "Show conversation history"},
		{"/save", "Save the transcript"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+D exits"))
	fmt.Println()
}

// printStatus prints session statistics.
func printStatus(session *ChatSession) {
	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		infoStyle.Render("Backend:"),
		commandStyle.Render(session.App.Store.APIBase()))

	if session.App.Session.IsAuthenticated() {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Session:"),
			commandStyle.Render("Authenticated"))
	} else {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Session:"),
			warningStyle.Render("Not logged in"))
	}

	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %d messages, %d sends\n",
		infoStyle.Render("History:"),
		session.Orch.Conversation().Len(),
		session.SendCount)

	fmt.Println()
}

// printHistory prints conversation history.
func printHistory(session *ChatSession) {
	turns := session.Orch.History()
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, turn := range turns {
		role := turn.Role.DisplayName()
		switch {
		case turn.Diagnostic:
			role = diagnosticStyle.Render(role)
		case turn.Role == model.RoleUser:
			role = lipgloss.NewStyle().Foreground(styles.Cyan).Render(role)
		default:
			role = lipgloss.NewStyle().Foreground(styles.Purple).Render(role)
		}

		// Truncate long messages using rune-based truncation for Unicode safety
		content := turn.Content
		runes := []rune(content)
		if len(runes) > 100 {
			content = string(runes[:100]) + "..."
		}
		content = strings.ReplaceAll(content, "\n", " ")

		fmt.Printf("  %d. %s: %s\n", i+1, role, content)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession) {
	if session.SendCount == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		infoStyle.Render("Sends:"),
		session.SendCount)
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Messages:"),
		session.Orch.Conversation().Len())
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
