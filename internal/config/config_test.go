// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	s, err := OpenPath(path)
	require.NoError(t, err)
	return s
}

func TestStore_DefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, DefaultAPIBase, s.APIBase())
	assert.Equal(t, DefaultTokenPath, s.TokenPath())
	assert.Empty(t, s.Provider())
	assert.Empty(t, s.Model())

	_, ok := s.Token()
	assert.False(t, ok)
}

func TestStore_EnvOverrides(t *testing.T) {
	s := newTestStore(t)

	t.Setenv(EnvAPIBase, "https://api.example.com")
	t.Setenv(EnvTokenPath, "/auth/token")
	t.Setenv(EnvModel, "gpt-4o")

	assert.Equal(t, "https://api.example.com", s.APIBase())
	assert.Equal(t, "/auth/token", s.TokenPath())
	assert.Equal(t, "gpt-4o", s.Model())

	// Stored values win over the environment.
	require.NoError(t, s.Set("api_base", "http://stored:9000"))
	assert.Equal(t, "http://stored:9000", s.APIBase())
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("api_base", "http://localhost:8000"))
	require.NoError(t, s.Set("provider", "openai"))
	require.NoError(t, s.Set("model", "gpt-4o-mini"))
	require.NoError(t, s.Set("token_path", "/auth/token"))

	// A fresh store over the same file sees the persisted values.
	s2, err := OpenPath(s.FilePath())
	require.NoError(t, err)

	v, err := s2.Get("provider")
	require.NoError(t, err)
	assert.Equal(t, "openai", v)
	assert.Equal(t, "http://localhost:8000", s2.APIBase())
	assert.Equal(t, "/auth/token", s2.TokenPath())
}

func TestStore_UnknownKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, s.Set("nope", "x"), ErrUnknownKey)
}

func TestStore_TokenEntry(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetToken("tok123"))
	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok123", tok)

	// The entry is removed from the file, not just blanked in memory.
	require.NoError(t, s.RemoveToken())
	_, ok = s.Token()
	assert.False(t, ok)

	data, err := os.ReadFile(s.FilePath())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tok123")

	// Removing again is a no-op success.
	require.NoError(t, s.RemoveToken())
}

func TestStore_FilePermissions(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("secret"))

	info, err := os.Stat(s.FilePath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_ReloadSeesExternalWrite(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("model", "old"))

	// Simulate another process rewriting the file.
	external := "model = \"new\"\n"
	require.NoError(t, os.WriteFile(s.FilePath(), []byte(external), 0600))

	require.NoError(t, s.Reload())
	assert.Equal(t, "new", s.Model())
}

func TestStore_WatchReloadsOnExternalWrite(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("model", "old"))

	reloaded := make(chan struct{}, 1)
	require.NoError(t, s.Watch(func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}))
	defer s.CloseWatch()

	// Another process rewriting the file must show up without a manual
	// Reload. The watcher debounces, so allow generous time.
	external := "model = \"new\"\n"
	require.NoError(t, os.WriteFile(s.FilePath(), []byte(external), 0600))

	select {
	case <-reloaded:
	case <-time.After(10 * time.Second):
		t.Fatal("watcher never reloaded after external write")
	}
	assert.Equal(t, "new", s.Model())
}

func TestStore_CloseWatchIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Watch(nil))
	require.NoError(t, s.CloseWatch())
	require.NoError(t, s.CloseWatch())
}
