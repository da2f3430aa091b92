// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the bearer token lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrLoginThrottled indicates too many login attempts in a short window.
	ErrLoginThrottled = errors.New("too many login attempts, wait a moment and retry")

	// ErrEmptyCredentials indicates a blank identifier or secret.
	ErrEmptyCredentials = errors.New("email and password are required")

	// ErrNoAccessToken indicates the token endpoint answered 2xx without an
	// access_token field.
	ErrNoAccessToken = errors.New("token endpoint returned no access_token")
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the current bearer token: load-on-start, set-on-login,
// clear-on-logout-or-401. It implements api.TokenSource, so the gateway
// always sees the live token.
type Manager struct {
	mu     sync.RWMutex
	store  *config.Store
	client *api.Client
	vault  *Vault
	token  string

	// Login throttle: a short burst, then one attempt per two seconds.
	limiter *rate.Limiter
}

// NewManager creates a session manager and loads any stored token.
// No network call happens here.
func NewManager(store *config.Store, client *api.Client, vault *Vault) *Manager {
	m := &Manager{
		store:   store,
		client:  client,
		vault:   vault,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
	m.load()
	return m
}

// load reads the stored token entry into memory. An entry that fails to
// decrypt is treated as absent: the session starts unauthenticated and the
// next login overwrites it.
func (m *Manager) load() {
	stored, ok := m.store.Token()
	if !ok {
		return
	}

	tok := stored
	if IsEncrypted(stored) {
		plain, err := m.vault.Decrypt(stored)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: stored token could not be decrypted, re-login required: %v\n", err)
			return
		}
		tok = plain
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
}

// Token returns the current bearer credential, or "" when unauthenticated.
// Implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether a token is present.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// Login performs the OAuth2 password grant against the configured token
// endpoint and commits the issued token to the store and to memory. On any
// failure neither is mutated and the gateway's outcome error is returned
// unchanged.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	if strings.TrimSpace(identifier) == "" || secret == "" {
		return ErrEmptyCredentials
	}
	if !m.limiter.Allow() {
		return ErrLoginThrottled
	}

	// Content type for this one call is form-urlencoded regardless of the
	// gateway's JSON default.
	res, err := m.client.Send(ctx, api.Request{
		Path:   m.store.TokenPath(),
		Method: http.MethodPost,
		Form: url.Values{
			"username": {identifier},
			"password": {secret},
		},
	})
	if err != nil {
		return err
	}

	var grant struct {
		AccessToken string `json:"access_token"`
	}
	if !res.IsJSON() || res.Decode(&grant) != nil || grant.AccessToken == "" {
		return ErrNoAccessToken
	}

	// Store first, memory second: a token the store failed to persist is
	// never held, so login fails as a whole if the write fails.
	sealed, err := m.vault.Encrypt(grant.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to protect token: %w", err)
	}
	if err := m.store.SetToken(sealed); err != nil {
		return err
	}

	m.mu.Lock()
	m.token = grant.AccessToken
	m.mu.Unlock()
	return nil
}

// Logout clears the in-memory session and removes the stored token entry.
// Never performs a network call; calling it when already logged out is a
// no-op success.
func (m *Manager) Logout() error {
	if err := m.store.RemoveToken(); err != nil {
		return err
	}
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// HandleAuthError invalidates the session after a 401 outcome. The stored
// entry is removed as well, never left behind with a stale value.
func (m *Manager) HandleAuthError() {
	if err := m.Logout(); err != nil {
		// The server already rejected the credential; a failed store
		// removal still must not leave it active in memory.
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()
	}
}
