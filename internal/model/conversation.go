// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/parley-tui/internal/util"
)

// MaxTurns is the maximum number of turns kept in conversation history.
// When exceeded, the oldest turns are pruned to prevent unbounded memory
// growth (and unbounded replay payloads).
const MaxTurns = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered chat transcript.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Turns []Turn `json:"turns"`
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Turns:     make([]Turn, 0),
	}
}

// =============================================================================
// TURN MANAGEMENT
// =============================================================================

// Append adds a turn to the end of the conversation.
func (c *Conversation) Append(t Turn) {
	c.Turns = append(c.Turns, t)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.prune()
}

// AppendUser creates and appends a user turn.
func (c *Conversation) AppendUser(content string) Turn {
	t := NewUserTurn(content)
	c.Append(t)
	return t
}

// AppendAssistant creates and appends an assistant turn.
func (c *Conversation) AppendAssistant(content string) Turn {
	t := NewAssistantTurn(content)
	c.Append(t)
	return t
}

// AppendDiagnostic creates and appends a diagnostic turn.
func (c *Conversation) AppendDiagnostic(content string) Turn {
	t := NewDiagnosticTurn(content)
	c.Append(t)
	return t
}

// Clear removes all turns atomically.
func (c *Conversation) Clear() {
	c.Turns = make([]Turn, 0)
	c.UpdatedAt = time.Now()
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.Turns)
}

// IsEmpty reports whether the conversation has no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.Turns) == 0
}

// Last returns the most recent turn, or nil if empty.
func (c *Conversation) Last() *Turn {
	if len(c.Turns) == 0 {
		return nil
	}
	return &c.Turns[len(c.Turns)-1]
}

// History returns the turns for display.
func (c *Conversation) History() []Turn {
	return c.Turns
}

// =============================================================================
// WIRE CONVERSION
// =============================================================================

// WireMessages converts the conversation to the chat endpoint's message
// format. Diagnostic turns are locally generated error text and are
// excluded from the replay.
func (c *Conversation) WireMessages() []WireMessage {
	messages := make([]WireMessage, 0, len(c.Turns))
	for _, t := range c.Turns {
		if t.Diagnostic {
			continue
		}
		messages = append(messages, WireMessage{
			Role:    t.Role.String(),
			Content: t.Content,
		})
	}
	return messages
}

// =============================================================================
// TITLE / PREVIEW
// =============================================================================

// updateTitle auto-generates a title from the first user turn if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, t := range c.Turns {
		if t.Role == RoleUser {
			c.Title = util.TruncateRunes(t.Content, 50)
			return
		}
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// Preview returns a short preview of the conversation.
func (c *Conversation) Preview() string {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleUser {
			return util.TruncateRunes(c.Turns[i].Content, 100)
		}
	}
	if len(c.Turns) == 0 {
		return "Empty conversation"
	}
	return util.TruncateRunes(c.Turns[0].Content, 100)
}

// prune drops the oldest turns once the cap is exceeded.
func (c *Conversation) prune() {
	if len(c.Turns) <= MaxTurns {
		return
	}
	c.Turns = append([]Turn(nil), c.Turns[len(c.Turns)-MaxTurns:]...)
}
