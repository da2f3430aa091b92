// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat coordinates the session manager, the request gateway, and
// the conversation for a single "send message" operation.
//
// One send moves through the states Idle → PreparingAuth → AwaitingAuth
// (only when unauthenticated with no inline credentials available) →
// Sending → Settled. At most one send is in flight per conversation; a
// second Send while one is outstanding is rejected with ErrBusy.
//
// Network and server failures never escape Send as raised errors: every
// failure is rendered into the transcript as a diagnostic turn, so the
// surrounding UI stays a pure renderer of the conversation.
package chat
