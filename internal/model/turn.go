// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// DiagnosticPrefix marks diagnostic content for display. It is a rendering
// cue only; exclusion from the server replay is driven by the Diagnostic
// flag, not by string matching.
const DiagnosticPrefix = "⚠ "

// Turn is one message in a conversation. Immutable once created.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Diagnostic marks a locally generated assistant-role turn (an error
	// rendered into the transcript). Diagnostic turns are never sent back
	// to the server.
	Diagnostic bool `json:"diagnostic,omitempty"`
}

// NewTurn creates a turn with a generated ID.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserTurn creates a user turn.
func NewUserTurn(content string) Turn {
	return NewTurn(RoleUser, content)
}

// NewAssistantTurn creates an assistant turn.
func NewAssistantTurn(content string) Turn {
	return NewTurn(RoleAssistant, content)
}

// NewDiagnosticTurn creates an assistant-role diagnostic turn.
func NewDiagnosticTurn(content string) Turn {
	t := NewTurn(RoleAssistant, DiagnosticPrefix+content)
	t.Diagnostic = true
	return t
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// WireMessage is the message shape the chat endpoint expects.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
