// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides the persistent settings store for parley.
//
// Settings live in a single TOML file (~/.parley/config.toml) and survive
// process restarts. The store holds the API base URL, the provider/model
// preferences, the token endpoint path, and the current bearer token.
//
// The file may be edited by another process (a second terminal, a text
// editor); the store watches it with fsnotify and re-reads on external
// modification instead of caching indefinitely.
//
// # Usage
//
//	store, err := config.Open()
//	base := store.APIBase()           // explicit value, or default
//	err = store.SetToken("eyJ...")    // persisted atomically
//
// # Security
//
// The config file is written with 0600 permissions and the bearer token is
// stored encrypted (see internal/session) rather than in the clear.
package config
