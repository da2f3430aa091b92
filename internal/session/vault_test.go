// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	v, err := OpenVault(dir)
	require.NoError(t, err)

	sealed, err := v.Encrypt("tok123")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(sealed))
	assert.NotContains(t, sealed, "tok123")

	plain, err := v.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "tok123", plain)
}

func TestVault_KeyPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	v1, err := OpenVault(dir)
	require.NoError(t, err)
	sealed, err := v1.Encrypt("secret-token")
	require.NoError(t, err)

	// A second vault over the same directory derives the same key.
	v2, err := OpenVault(dir)
	require.NoError(t, err)
	plain, err := v2.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", plain)
}

func TestVault_TamperDetected(t *testing.T) {
	dir := t.TempDir()
	v, err := OpenVault(dir)
	require.NoError(t, err)

	sealed, err := v.Encrypt("tok123")
	require.NoError(t, err)

	// Flip a character in the ciphertext.
	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered == sealed {
		tampered = sealed[:len(sealed)-2] + "BB"
	}
	_, err = v.Decrypt(tampered)
	assert.Error(t, err)
}

func TestVault_RejectsMalformedValues(t *testing.T) {
	dir := t.TempDir()
	v, err := OpenVault(dir)
	require.NoError(t, err)

	for _, bad := range []string{"plaintext", "ENC:", "ENC:!!!not-base64!!!", "ENC:" + strings.Repeat("A", 4)} {
		_, err := v.Decrypt(bad)
		assert.Error(t, err, "value %q", bad)
	}
}

func TestVault_NoncesNeverRepeat(t *testing.T) {
	dir := t.TempDir()
	v, err := OpenVault(dir)
	require.NoError(t, err)

	a, err := v.Encrypt("same")
	require.NoError(t, err)
	b, err := v.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
