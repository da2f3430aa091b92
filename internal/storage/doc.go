// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for parley.
//
// Transcripts live in a local SQLite database so sessions survive
// restarts. Saves are transactional; re-saving a conversation replaces
// its turns wholesale, so the database always mirrors the in-memory
// transcript.
//
// # Key Types
//
//   - Store: SQLite-backed transcript store
//   - ConversationMeta: Lightweight metadata for listing
//
// # Usage
//
// Open a store and save a conversation:
//
//	store, err := storage.Open()
//	id, err := store.Save(conversation)
//
// List and load conversations:
//
//	metas, err := store.List()
//	conv, err := store.Load(metas[0].ID)
//
// Search conversations:
//
//	results, err := store.Search("query text")
//
// # Storage Location
//
// The database lives at ~/.parley/transcripts.db.
package storage
