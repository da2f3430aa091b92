// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea messages exchanged between the view
// and the asynchronous orchestrator commands.
package chat

import (
	orch "github.com/jeranaias/parley-tui/internal/chat"
)

// SendResultMsg reports a settled send operation.
type SendResultMsg struct {
	Status orch.SendStatus
	Err    error
}

// LoginResultMsg reports the outcome of a login attempt from the form.
type LoginResultMsg struct {
	Err error
}

// SaveResultMsg reports the outcome of saving the transcript.
type SaveResultMsg struct {
	ID  string
	Err error
}

// StatusExpireMsg clears a temporary status message.
type StatusExpireMsg struct {
	// Seq guards against an old timer clearing a newer message.
	Seq int
}
