// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// encryptedPrefix marks a token value sealed by TokenCipher. Values without
// it are plaintext, so files written before a key was configured still load.
const encryptedPrefix = "enc:v1:"

// hkdfInfo binds derived keys to this use.
const hkdfInfo = "ordersync-credential-file"

var (
	// ErrEncryptedCredential means the file holds sealed tokens but no key is configured.
	ErrEncryptedCredential = errors.New("credential file is encrypted; set credentials.encryption_key (TOKEN_ENCRYPTION_KEY)")

	// ErrDecryptionFailed means a sealed token could not be opened, usually a wrong key.
	ErrDecryptionFailed = errors.New("credential decryption failed")
)

// TokenCipher seals token values with AES-256-GCM under a key derived from
// the configured master key with HKDF-SHA256. A nil *TokenCipher passes
// values through unchanged.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher decodes a base64 master key of at least 16 bytes. An empty
// key disables encryption and returns nil.
func NewTokenCipher(masterKey string) (*TokenCipher, error) {
	if masterKey == "" {
		return nil, nil
	}

	secret, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(secret) < 16 {
		return nil, errors.New("encryption key must be at least 16 bytes")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

// Enabled reports whether values are sealed.
func (c *TokenCipher) Enabled() bool {
	return c != nil && c.aead != nil
}

// Seal encrypts a token value. Empty values stay empty.
func (c *TokenCipher) Seal(plaintext string) (string, error) {
	if !c.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Plaintext values are returned as is.
func (c *TokenCipher) Open(value string) (string, error) {
	encoded, sealed := strings.CutPrefix(value, encryptedPrefix)
	if !sealed {
		return value, nil
	}
	if !c.Enabled() {
		return "", ErrEncryptedCredential
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryptionFailed)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: data too short", ErrDecryptionFailed)
	}

	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// GenerateEncryptionKey returns a random 256-bit key, base64 encoded.
func GenerateEncryptionKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
