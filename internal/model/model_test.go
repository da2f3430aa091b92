// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_OrderPreserved(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < 5; i++ {
		conv.AppendUser(fmt.Sprintf("q%d", i))
		conv.AppendAssistant(fmt.Sprintf("a%d", i))
	}

	require.Equal(t, 10, conv.Len())
	for i, turn := range conv.History() {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, turn.Role)
			assert.Equal(t, fmt.Sprintf("q%d", i/2), turn.Content)
		} else {
			assert.Equal(t, RoleAssistant, turn.Role)
			assert.Equal(t, fmt.Sprintf("a%d", i/2), turn.Content)
		}
	}
}

func TestConversation_WireMessagesExcludeDiagnostics(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("hello")
	conv.AppendDiagnostic("login failed: connection refused")
	conv.AppendUser("hello again")
	conv.AppendAssistant("hi there")

	wire := conv.WireMessages()
	require.Len(t, wire, 3)
	assert.Equal(t, WireMessage{Role: "user", Content: "hello"}, wire[0])
	assert.Equal(t, WireMessage{Role: "user", Content: "hello again"}, wire[1])
	assert.Equal(t, WireMessage{Role: "assistant", Content: "hi there"}, wire[2])

	// The transcript itself still shows the diagnostic.
	assert.Equal(t, 4, conv.Len())
	assert.True(t, conv.Turns[1].Diagnostic)
	assert.Contains(t, conv.Turns[1].Content, DiagnosticPrefix)
}

func TestConversation_Clear(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("x")
	conv.AppendAssistant("y")

	conv.Clear()
	assert.True(t, conv.IsEmpty())
	assert.Empty(t, conv.WireMessages())
}

func TestConversation_TitleFromFirstUserTurn(t *testing.T) {
	conv := NewConversation()
	assert.Equal(t, "New Conversation", conv.GetTitle())

	conv.AppendUser("what is the airspeed velocity of an unladen swallow?")
	assert.Equal(t, "what is the airspeed velocity of an unladen swa...", conv.GetTitle())
}

func TestConversation_Prune(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < MaxTurns+10; i++ {
		conv.AppendUser(fmt.Sprintf("m%d", i))
	}
	assert.Equal(t, MaxTurns, conv.Len())
	// The oldest turns were dropped, the newest kept.
	assert.Equal(t, fmt.Sprintf("m%d", MaxTurns+9), conv.Last().Content)
}

func TestTurn_Immutable(t *testing.T) {
	conv := NewConversation()
	appended := conv.AppendUser("original")

	// Mutating the returned copy does not affect the stored turn.
	appended.Content = "mutated"
	assert.Equal(t, "original", conv.Turns[0].Content)
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
}
