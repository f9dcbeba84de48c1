// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ordersync/internal/logging"
	"github.com/tomtom215/ordersync/internal/models"
)

// Store persists the credential between runs.
type Store interface {
	Load() (*models.Credential, error)
	Save(cred *models.Credential) error
}

// FileStore keeps the credential in a JSON file (tiny_token.json).
type FileStore struct {
	path   string
	cipher *TokenCipher
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithCipher seals the token values written by Save. Load opens sealed
// values and accepts plaintext ones.
func WithCipher(c *TokenCipher) FileStoreOption {
	return func(s *FileStore) {
		s.cipher = c
	}
}

// NewFileStore returns a store for path.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the credential file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the credential. A missing or unparseable file yields an empty
// credential and no error. I/O failures and sealed tokens that cannot be
// opened are returned.
func (s *FileStore) Load() (*models.Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &models.Credential{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Credential file is unreadable, treating as unauthenticated")
		return &models.Credential{}, nil
	}

	if cred.AccessToken, err = s.cipher.Open(cred.AccessToken); err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	if cred.RefreshToken, err = s.cipher.Open(cred.RefreshToken); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &cred, nil
}

// Save writes the credential atomically: temp file in the same directory,
// fsync, rename. The file is created with mode 0600.
func (s *FileStore) Save(cred *models.Credential) error {
	stored := *cred
	var err error
	if stored.AccessToken, err = s.cipher.Seal(cred.AccessToken); err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	if stored.RefreshToken, err = s.cipher.Seal(cred.RefreshToken); err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tiny_token-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	committed = true
	return nil
}
