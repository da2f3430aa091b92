// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	orch "github.com/jeranaias/parley-tui/internal/chat"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/storage"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// ViewState represents the current state of the chat view.
type ViewState int

const (
	StateReady   ViewState = iota // Ready for input
	StateSending                  // A send is in flight
	StateLogin                    // Login form is visible
)

// statusMsgTTL is how long a temporary status message stays visible.
const statusMsgTTL = 4 * time.Second

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state ViewState

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Wiring
	orch    *orch.Orchestrator
	session *session.Manager
	store   *config.Store

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	loginForm LoginForm

	// Key bindings
	keyMap KeyMap

	// Thinking state
	sendStart time.Time

	// Temporary status message, cleared by StatusExpireMsg
	statusMsg string
	statusSeq int

	// Help overlay
	showHelp bool
}

// New creates a new chat model wired to an orchestrator and session.
func New(theme *styles.Theme, o *orch.Orchestrator, sess *session.Manager, store *config.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames so the spinner renders on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return Model{
		state:     StateReady,
		theme:     theme,
		orch:      o,
		session:   sess,
		store:     store,
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		loginForm: NewLoginForm(theme),
		keyMap:    DefaultKeyMap(),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SendResultMsg:
		return m.handleSendResult(msg)

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case SaveResultMsg:
		return m.handleSaveResult(msg)

	case StatusExpireMsg:
		if msg.Seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.state == StateSending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			// The orchestrator appends the user turn once the send
			// starts; refresh on each tick so it shows right away.
			m.updateViewport()
			m.viewport.GotoBottom()
			return m, cmd
		}
		return m, nil

	default:
		var cmds []tea.Cmd

		if m.state == StateReady {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Layout: header + viewport (dynamic) + input area + status bar.
	// Conservative estimates so the viewport is never too tall; renderChat
	// measures actual heights and pads on mismatch.
	const (
		headerHeight    = 2
		inputAreaHeight = 3
		statusBarHeight = 2
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	const promptLen = 2 // "> "
	inputWidth := m.width - 6 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}
	m.loginForm.SetWidth(m.width)

	m.updateViewport()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	// Emergency exit works in any state
	if keyStr == "ctrl+q" {
		return m, tea.Quit
	}

	// Help overlay swallows keys until dismissed
	if m.showHelp {
		switch keyStr {
		case "ctrl+h", "esc", "q", "enter":
			m.showHelp = false
		}
		return m, nil
	}

	if m.state == StateLogin {
		return m.handleLoginKey(msg)
	}

	switch keyStr {
	case "ctrl+c":
		if m.state == StateSending {
			// The send settles on its own; just tell the user
			return m.setStatus("Still waiting on the server (Ctrl+Q quits)")
		}
		return m, tea.Quit

	case "ctrl+h":
		m.showHelp = true
		return m, nil

	case "ctrl+l":
		m.orch.Reset()
		m.updateViewport()
		return m.setStatus("Conversation cleared")

	case "ctrl+s":
		return m, m.saveCmd()
	}

	if m.state == StateSending {
		// Allow scrolling while waiting
		return m.handleNavigationKeys(msg)
	}

	switch keyStr {
	case "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "up", "down":
		return m.handleNavigationKeys(msg)

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if strings.HasPrefix(text, "/") {
			m.input.Reset()
			return m.handleSlashCommand(text)
		}
		return m.submitInput(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNavigationKeys handles viewport navigation keys.
func (m Model) handleNavigationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
	case "up":
		m.viewport.LineUp(1)
	case "down":
		m.viewport.LineDown(1)
	case "home":
		m.viewport.GotoTop()
	case "end":
		m.viewport.GotoBottom()
	}
	return m, nil
}

// handleLoginKey forwards keys to the login form.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Abandon login; any parked send stays parked
		m.state = StateReady
		m.loginForm.Reset()
		m.input.Focus()
		if m.orch.State() == orch.StateAwaitingAuth {
			return m.setStatusWith("Login required to deliver your last message (/login)", textinput.Blink)
		}
		return m, textinput.Blink

	case "enter":
		if m.loginForm.FocusedField() < loginFieldSubmit {
			var cmd tea.Cmd
			m.loginForm, cmd = m.loginForm.FocusNext()
			return m, cmd
		}
		identifier, secret := m.loginForm.Values()
		if strings.TrimSpace(identifier) == "" {
			m.loginForm.SetError("username is required")
			return m, nil
		}
		return m, m.loginCmd(identifier, secret)
	}

	var cmd tea.Cmd
	m.loginForm, cmd = m.loginForm.Update(msg)
	return m, cmd
}

func (m Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	m.updateViewport()
	m.viewport.GotoBottom()

	if msg.Err != nil {
		if errors.Is(msg.Err, orch.ErrBusy) {
			return m.setStatus("A send is already in progress")
		}
		m.state = StateReady
		m.input.Focus()
		return m.setStatusWith("Send failed: "+msg.Err.Error(), textinput.Blink)
	}

	switch msg.Status {
	case orch.SendAwaitingAuth:
		// Credentials needed before the parked message can be delivered
		m.state = StateLogin
		m.loginForm.Reset()
		m.input.Blur()
		return m, m.loginForm.Focus()

	default:
		m.state = StateReady
		m.input.Focus()
		return m, textinput.Blink
	}
}

func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.loginForm.SetError(msg.Err.Error())
		return m, nil
	}

	m.loginForm.Reset()
	m.input.Focus()

	// Resend a send that was parked waiting for credentials
	if m.orch.State() == orch.StateAwaitingAuth {
		m.state = StateSending
		m.sendStart = time.Now()
		return m, tea.Batch(m.spinner.Tick, m.resumeCmd())
	}

	m.state = StateReady
	return m.setStatusWith("Logged in", textinput.Blink)
}

func (m Model) handleSaveResult(msg SaveResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m.setStatus("Save failed: " + msg.Err.Error())
	}
	return m.setStatus("Transcript saved")
}

// =============================================================================
// INPUT SUBMISSION AND SLASH COMMANDS
// =============================================================================

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.state = StateSending
	m.sendStart = time.Now()

	return m, tea.Batch(m.spinner.Tick, m.sendCmd(text))
}

func (m Model) handleSlashCommand(text string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.Fields(text)[0]) {
	case "/help", "/h":
		m.showHelp = true
		return m, nil

	case "/login":
		m.state = StateLogin
		m.loginForm.Reset()
		m.input.Blur()
		return m, m.loginForm.Focus()

	case "/logout":
		if err := m.session.Logout(); err != nil {
			return m.setStatus("Logout failed: " + err.Error())
		}
		return m.setStatus("Logged out")

	case "/clear", "/c":
		m.orch.Reset()
		m.updateViewport()
		return m.setStatus("Conversation cleared")

	case "/save":
		return m, m.saveCmd()

	case "/quit", "/q":
		return m, tea.Quit

	default:
		return m.setStatus("Unknown command (try /help)")
	}
}

// =============================================================================
// ASYNC COMMANDS
// =============================================================================

func (m Model) sendCmd(text string) tea.Cmd {
	o := m.orch
	return func() tea.Msg {
		status, err := o.Send(context.Background(), text)
		return SendResultMsg{Status: status, Err: err}
	}
}

func (m Model) resumeCmd() tea.Cmd {
	o := m.orch
	return func() tea.Msg {
		status, err := o.Resume(context.Background())
		return SendResultMsg{Status: status, Err: err}
	}
}

func (m Model) loginCmd(identifier, secret string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		err := sess.Login(context.Background(), identifier, secret)
		return LoginResultMsg{Err: err}
	}
}

func (m Model) saveCmd() tea.Cmd {
	// Detached copy: the live conversation may be appended to by an
	// in-flight send while this cmd runs.
	conv := m.orch.Snapshot()
	return func() tea.Msg {
		if conv.IsEmpty() {
			return SaveResultMsg{Err: errors.New("nothing to save")}
		}
		store, err := storage.Open()
		if err != nil {
			return SaveResultMsg{Err: err}
		}
		defer store.Close()

		id, err := store.Save(conv)
		return SaveResultMsg{ID: id, Err: err}
	}
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// setStatus shows a temporary status bar message.
func (m Model) setStatus(text string) (tea.Model, tea.Cmd) {
	return m.setStatusWith(text)
}

func (m Model) setStatusWith(text string, extra ...tea.Cmd) (tea.Model, tea.Cmd) {
	m.statusMsg = text
	m.statusSeq++
	seq := m.statusSeq

	expire := tea.Tick(statusMsgTTL, func(time.Time) tea.Msg {
		return StatusExpireMsg{Seq: seq}
	})
	return m, tea.Batch(append(extra, expire)...)
}

// =============================================================================
// VIEWPORT UPDATE
// =============================================================================

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTurns())
}

// GetState returns the current view state.
func (m *Model) GetState() ViewState {
	return m.state
}
