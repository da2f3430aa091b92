// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// A Turn is one message in a conversation, tagged with its speaker role.
// Turns are immutable once created. A Conversation is an ordered sequence
// of turns; insertion order is semantically significant because the full
// conversation is replayed verbatim to the server on every request.
//
// Diagnostic turns (login failures, transport errors) are displayed like
// assistant turns but are excluded from the server replay; see
// Conversation.WireMessages.
package model
