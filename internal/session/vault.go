// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks a stored value as encrypted
// (format: ENC:base64(nonce|ciphertext|tag)).
const EncryptedPrefix = "ENC:"

const (
	// nonceSize is the AES-GCM nonce size (96 bits).
	nonceSize = 12

	// keySize is the AES-256 key size.
	keySize = 32

	// saltSize is the key-derivation salt size.
	saltSize = 16

	// pbkdf2Iterations follows the OWASP recommendation for PBKDF2-SHA-256.
	pbkdf2Iterations = 600000

	// keyFileName holds the random vault secret and salt, 0600.
	keyFileName = "vault.key"
)

var (
	// ErrInvalidCiphertext indicates the stored value format is invalid.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrDecryptionFailed indicates a wrong key or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// zeroBytes zeros key material to limit exposure in crash dumps.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// VAULT
// =============================================================================

// Vault encrypts the bearer token for storage in the config file. The key
// is derived from a per-user random secret kept next to the config; the
// secret never leaves the machine.
type Vault struct {
	aead cipher.AEAD
}

// OpenVault opens the vault keyed from the secret file in dir, creating
// the secret on first use.
func OpenVault(dir string) (*Vault, error) {
	secret, salt, err := loadOrCreateSecret(filepath.Join(dir, keyFileName))
	if err != nil {
		return nil, err
	}
	defer zeroBytes(secret)

	key := pbkdf2.Key(secret, salt, pbkdf2Iterations, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// loadOrCreateSecret reads the key file, generating it on first use.
// File layout: salt (16 bytes) followed by the random secret (32 bytes).
func loadOrCreateSecret(path string) (secret, salt []byte, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != saltSize+keySize {
			return nil, nil, fmt.Errorf("corrupt vault key file %s", path)
		}
		return data[saltSize:], data[:saltSize], nil
	}
	if !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("failed to read vault key: %w", err)
	}

	buf := make([]byte, saltSize+keySize)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, nil, fmt.Errorf("failed to generate vault key: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf, 0600); err != nil {
		return nil, nil, fmt.Errorf("failed to write vault key: %w", err)
	}
	return buf[saltSize:], buf[:saltSize], nil
}

// IsEncrypted reports whether a stored value carries the encrypted marker.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

// Encrypt seals a plaintext value into the ENC: representation.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an ENC: value. Tampered or mis-keyed values fail with
// ErrDecryptionFailed.
func (v *Vault) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < nonceSize {
		return "", ErrInvalidCiphertext
	}
	plain, err := v.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}
