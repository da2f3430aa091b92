// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains all rendering logic for the chat interface:
//   - Main view rendering (renderChat)
//   - Turn rendering (user, assistant, diagnostic)
//   - UI chrome (header, input area, status bar)
//   - Login form and help overlays
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat view.
// Layout: header + transcript (viewport) + input area + status bar.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	headerHeight := lipgloss.Height(header)
	inputHeight := lipgloss.Height(input)
	statusHeight := lipgloss.Height(status)

	availableHeight := m.height - headerHeight - inputHeight - statusHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	var middle string
	if m.state == StateLogin {
		middle = lipgloss.Place(
			m.width, availableHeight,
			lipgloss.Center, lipgloss.Center,
			m.loginForm.View(),
		)
	} else {
		middle = m.viewport.View()
		if lipgloss.Height(middle) != availableHeight {
			// Force the height so the chrome never drifts off screen
			middle = lipgloss.NewStyle().
				Height(availableHeight).
				MaxHeight(availableHeight).
				Width(m.width).
				Render(middle)
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		middle,
		input,
		status,
	)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTurns renders the conversation for the viewport.
func (m Model) renderTurns() string {
	turns := m.orch.History()
	if len(turns) == 0 {
		return m.renderEmptyState()
	}

	contentWidth := m.width - 8
	if contentWidth < 30 {
		contentWidth = 30
	}

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderTurn(turn, contentWidth))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTurn(turn model.Turn, contentWidth int) string {
	t := m.theme

	switch {
	case turn.Diagnostic:
		return t.DiagnosticBubble.Width(contentWidth).Render(turn.Content)

	case turn.Role == model.RoleUser:
		label := t.UserLabel.Render(turn.Role.DisplayName() + " " + turn.Timestamp.Format("15:04"))
		body := t.UserBubble.Width(contentWidth).Render(turn.Content)
		return label + "\n" + body

	default:
		label := t.AssistantLabel.Render(turn.Role.DisplayName() + " " + turn.Timestamp.Format("15:04"))
		body := t.AssistantBubble.Width(contentWidth).Render(turn.Content)
		return label + "\n" + body
	}
}

func (m Model) renderEmptyState() string {
	t := m.theme

	lines := []string{
		t.HeaderTitle.Render("parley"),
		"",
		t.ShortcutDesc.Render("Type a message and press Enter to start."),
		t.ShortcutDesc.Render("Commands: /login /logout /clear /save /help /quit"),
	}

	return lipgloss.Place(
		m.viewport.Width, m.viewport.Height,
		lipgloss.Center, lipgloss.Center,
		strings.Join(lines, "\n"),
	)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme

	title := t.HeaderTitle.Render("parley")
	subtitle := t.HeaderSubtitle.Render(m.store.APIBase())

	bar := title + "  " + subtitle
	return t.Header.Width(m.width).Render(bar)
}

func (m Model) renderInput() string {
	t := m.theme

	if m.state == StateSending {
		elapsed := time.Since(m.sendStart).Round(time.Second)
		thinking := fmt.Sprintf("%s Waiting for reply... %s",
			m.spinner.View(),
			t.ThinkingText.Render(elapsed.String()))
		return t.InputContainer.Width(m.width).Render(thinking)
	}

	if m.state == StateLogin {
		hint := t.ShortcutDesc.Render("Complete the sign-in form above, or press Esc to cancel")
		return t.InputContainer.Width(m.width).Render(hint)
	}

	return t.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	t := m.theme

	var auth string
	if m.session.IsAuthenticated() {
		auth = t.Authenticated.Render("● authenticated")
	} else {
		auth = t.Unauthenticated.Render("○ not logged in")
	}

	var middle string
	if m.statusMsg != "" {
		middle = t.ShortcutDesc.Render(m.statusMsg)
	} else {
		var hints []string
		for _, binding := range m.keyMap.ShortHelp() {
			h := binding.Help()
			hints = append(hints,
				t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
		}
		middle = strings.Join(hints, "  ")
	}

	turns := t.ShortcutDesc.Render(fmt.Sprintf("%d turns", m.orch.Len()))

	left := auth + "  " + middle
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(turns) - 2
	if gap < 1 {
		gap = 1
	}

	return t.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + turns)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) renderHelpOverlay() string {
	t := m.theme

	var b strings.Builder
	b.WriteString(t.HeaderTitle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, group := range m.keyMap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				t.ShortcutKey.Render(fmt.Sprintf("%-10s", h.Key)),
				t.ShortcutDesc.Render(h.Desc)))
		}
		b.WriteString("\n")
	}

	b.WriteString(t.ShortcutDesc.Render("Slash commands: /login /logout /clear /save /help /quit"))
	b.WriteString("\n\n")
	b.WriteString(t.ShortcutDesc.Render("Press Esc to close"))

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		t.Container.Render(b.String()),
	)
}
