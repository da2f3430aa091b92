// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides the persistent settings store for parley.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultAPIBase is the gateway base URL used when nothing is configured.
	DefaultAPIBase = "http://localhost:8000"

	// DefaultTokenPath is the token-issuance endpoint path. Deployments vary
	// between /token and /auth/token, so this is a setting, not a constant
	// of the protocol.
	DefaultTokenPath = "/token"
)

// Environment overrides, applied on every read so that a variable set after
// the file was loaded still wins.
const (
	EnvAPIBase   = "PARLEY_API_BASE"
	EnvProvider  = "PARLEY_PROVIDER"
	EnvModel     = "PARLEY_MODEL"
	EnvTokenPath = "PARLEY_TOKEN_PATH"
)

// ErrUnknownKey is returned by Get/Set for a key the store does not hold.
var ErrUnknownKey = errors.New("unknown config key")

// =============================================================================
// STORED DOCUMENT
// =============================================================================

// Settings is the on-disk shape of the config file.
type Settings struct {
	// APIBase is the gateway base URL (must carry an http:// or https://
	// scheme; validation happens at request time, not here).
	APIBase string `toml:"api_base,omitempty"`

	// Provider is the optional upstream provider preference.
	Provider string `toml:"provider,omitempty"`

	// Model is the optional model preference.
	Model string `toml:"model,omitempty"`

	// TokenPath is the token-issuance endpoint path override.
	TokenPath string `toml:"token_path,omitempty"`

	// Token is the current bearer credential, normally in the encrypted
	// ENC: representation produced by the session vault.
	Token string `toml:"token,omitempty"`
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the parley configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions fixes overly permissive modes on the config file.
// SECURITY: The file holds the bearer token; anything wider than 0600 leaks it.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// STORE
// =============================================================================

// Store is the persistent key/value settings store.
//
// Reads fall back from the stored value to the environment override to the
// built-in default. Writes are atomic: the whole file is replaced via
// rename, never patched in place.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings

	// watcher state (see watcher.go)
	watcher  *watcher
	onChange func()
}

// Open opens the store at the default path, creating the directory if needed.
// A missing file is not an error; the store starts from defaults.
func Open() (*Store, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath opens the store backed by a specific file.
func OpenPath(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload reads the file from disk into memory. A missing file resets the
// in-memory settings to zero values (defaults apply on read).
func (s *Store) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = Settings{}
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := ensureSecurePermissions(s.path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", s.path, err)
	}

	if _, err := toml.DecodeFile(s.path, &s.settings); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// Reload re-reads the config file from disk, discarding the cached copy.
func (s *Store) Reload() error {
	return s.reload()
}

// save writes the current in-memory settings to disk atomically.
// Callers must hold s.mu.
func (s *Store) save() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.settings); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// FilePath returns the path of the backing file.
func (s *Store) FilePath() string {
	return s.path
}

// =============================================================================
// RESOLVED READS
// =============================================================================

// APIBase returns the resolved gateway base URL.
// Resolution order: stored value, environment override, built-in default.
func (s *Store) APIBase() string {
	s.mu.RLock()
	v := s.settings.APIBase
	s.mu.RUnlock()
	if v != "" {
		return v
	}
	if env := os.Getenv(EnvAPIBase); env != "" {
		return env
	}
	return DefaultAPIBase
}

// Provider returns the resolved provider preference, or "" for none.
func (s *Store) Provider() string {
	s.mu.RLock()
	v := s.settings.Provider
	s.mu.RUnlock()
	if v != "" {
		return v
	}
	return os.Getenv(EnvProvider)
}

// Model returns the resolved model preference, or "" for none.
func (s *Store) Model() string {
	s.mu.RLock()
	v := s.settings.Model
	s.mu.RUnlock()
	if v != "" {
		return v
	}
	return os.Getenv(EnvModel)
}

// TokenPath returns the resolved token-issuance endpoint path.
func (s *Store) TokenPath() string {
	s.mu.RLock()
	v := s.settings.TokenPath
	s.mu.RUnlock()
	if v != "" {
		return v
	}
	if env := os.Getenv(EnvTokenPath); env != "" {
		return env
	}
	return DefaultTokenPath
}

// =============================================================================
// TOKEN ENTRY
// =============================================================================

// Token returns the stored bearer token entry and whether one is present.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Token, s.settings.Token != ""
}

// SetToken persists the bearer token entry. The write is all-or-nothing: on
// error the previous on-disk and in-memory state are preserved.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.settings.Token
	s.settings.Token = token
	if err := s.save(); err != nil {
		s.settings.Token = prev
		return err
	}
	return nil
}

// RemoveToken deletes the stored token entry. Removing an absent entry is a
// no-op success, which keeps logout idempotent.
func (s *Store) RemoveToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings.Token == "" {
		return nil
	}
	prev := s.settings.Token
	s.settings.Token = ""
	if err := s.save(); err != nil {
		s.settings.Token = prev
		return err
	}
	return nil
}

// =============================================================================
// GENERIC KEY ACCESS (config get/set commands)
// =============================================================================

// Keys lists the settable configuration keys.
func Keys() []string {
	return []string{"api_base", "provider", "model", "token_path"}
}

// Get returns the stored (unresolved) value for a key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch key {
	case "api_base":
		return s.settings.APIBase, nil
	case "provider":
		return s.settings.Provider, nil
	case "model":
		return s.settings.Model, nil
	case "token_path":
		return s.settings.TokenPath, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set stores a value for a key and persists the change. An empty value
// clears the key so the environment/default fallback applies again.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value = strings.TrimSpace(value)
	prev := s.settings
	switch key {
	case "api_base":
		s.settings.APIBase = value
	case "provider":
		s.settings.Provider = value
	case "model":
		s.settings.Model = value
	case "token_path":
		s.settings.TokenPath = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	if err := s.save(); err != nil {
		s.settings = prev
		return err
	}
	return nil
}
