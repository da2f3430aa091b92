// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the bearer token lifecycle.
//
// The manager loads the stored token at startup, obtains a new one on
// login (OAuth2 password grant against the configurable token endpoint),
// and clears it on logout or when the server answers 401. Every
// state-changing operation either commits fully (store and memory) or
// rolls back fully; a token is never held in memory that the store failed
// to persist.
//
// # Security
//
// Tokens are encrypted at rest with AES-256-GCM (see Vault) and login
// attempts are throttled to blunt credential stuffing from a looping
// script.
package session
