// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The view is a single-screen Bubble Tea model: a scrollable transcript
// viewport, a single-line input, a status bar, and an inline login form
// that appears when a send is parked waiting for credentials. All
// request orchestration is delegated to the chat orchestrator; this
// package only renders state and translates key presses into commands.
package chat
