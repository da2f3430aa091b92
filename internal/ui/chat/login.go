// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the inline login form shown when a send is
// parked waiting for credentials, or when the user runs /login.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Login form field indexes. Submit is a virtual field so Enter on the
// password field moves to an explicit submit step.
const (
	loginFieldUsername = iota
	loginFieldPassword
	loginFieldSubmit
)

// LoginForm is a two-field credential form.
type LoginForm struct {
	theme *styles.Theme
	width int

	username textinput.Model
	password textinput.Model
	focused  int
	errText  string
}

// NewLoginForm creates an empty login form.
func NewLoginForm(theme *styles.Theme) LoginForm {
	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = "user@example.com"
	user.CharLimit = 256

	pass := textinput.New()
	pass.Prompt = ""
	pass.Placeholder = "password"
	pass.CharLimit = 256
	// SECURITY: Never echo the password
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return LoginForm{
		theme:    theme,
		username: user,
		password: pass,
	}
}

// Focus focuses the username field.
func (f *LoginForm) Focus() tea.Cmd {
	f.focused = loginFieldUsername
	f.password.Blur()
	return f.username.Focus()
}

// FocusNext advances focus to the next field.
func (f LoginForm) FocusNext() (LoginForm, tea.Cmd) {
	f.focused++
	if f.focused > loginFieldSubmit {
		f.focused = loginFieldUsername
	}

	f.username.Blur()
	f.password.Blur()

	switch f.focused {
	case loginFieldUsername:
		return f, f.username.Focus()
	case loginFieldPassword:
		return f, f.password.Focus()
	}
	return f, nil
}

// FocusedField returns the currently focused field index.
func (f *LoginForm) FocusedField() int {
	return f.focused
}

// Values returns the entered credentials.
func (f *LoginForm) Values() (identifier, secret string) {
	return strings.TrimSpace(f.username.Value()), f.password.Value()
}

// SetError shows an error line under the form.
func (f *LoginForm) SetError(text string) {
	f.errText = text
}

// SetWidth updates the form width.
func (f *LoginForm) SetWidth(width int) {
	f.width = width

	fieldWidth := width - 20
	if fieldWidth < 20 {
		fieldWidth = 20
	}
	if fieldWidth > 48 {
		fieldWidth = 48
	}
	f.username.Width = fieldWidth
	f.password.Width = fieldWidth
}

// Reset clears the form.
func (f *LoginForm) Reset() {
	f.username.Reset()
	f.password.Reset()
	f.username.Blur()
	f.password.Blur()
	f.focused = loginFieldUsername
	f.errText = ""
}

// Update forwards key events to the focused field. Tab cycles fields.
func (f LoginForm) Update(msg tea.Msg) (LoginForm, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return f.FocusNext()
		case "shift+tab", "up":
			// Cycle backwards
			f.focused--
			if f.focused < loginFieldUsername {
				f.focused = loginFieldSubmit
			}
			f.username.Blur()
			f.password.Blur()
			switch f.focused {
			case loginFieldUsername:
				return f, f.username.Focus()
			case loginFieldPassword:
				return f, f.password.Focus()
			}
			return f, nil
		}
	}

	var cmd tea.Cmd
	switch f.focused {
	case loginFieldUsername:
		f.username, cmd = f.username.Update(msg)
	case loginFieldPassword:
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

// View renders the login form box.
func (f LoginForm) View() string {
	t := f.theme

	var b strings.Builder
	b.WriteString(t.LoginTitle.Render("Sign in"))
	b.WriteString("\n\n")

	b.WriteString(t.LoginLabel.Render("Username"))
	b.WriteString("\n")
	b.WriteString(f.username.View())
	b.WriteString("\n\n")

	b.WriteString(t.LoginLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")

	submit := "[ Sign in ]"
	if f.focused == loginFieldSubmit {
		submit = t.LoginTitle.Render(submit)
	} else {
		submit = t.LoginHint.Render(submit)
	}
	b.WriteString(submit)

	if f.errText != "" {
		b.WriteString("\n\n")
		b.WriteString(t.LoginError.Render(f.errText))
	}

	b.WriteString("\n\n")
	b.WriteString(t.LoginHint.Render("Tab: next field   Enter: continue   Esc: cancel"))

	box := t.LoginBox.Render(b.String())
	if f.width > 0 {
		return lipgloss.PlaceHorizontal(f.width, lipgloss.Center, box)
	}
	return box
}
