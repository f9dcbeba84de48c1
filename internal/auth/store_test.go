// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/ordersync/internal/models"
)

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tiny_token.json")
	store := NewFileStore(path)

	want := &models.Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    1_800_000_000,
		LastRenewal:  1_799_990_000,
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the credential file", len(entries))
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	cred, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cred.Empty() {
		t.Errorf("missing file should load as empty credential, got %+v", cred)
	}
}

func TestFileStore_Unparseable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny_token.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cred, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cred.Empty() {
		t.Errorf("unparseable file should load as empty credential, got %+v", cred)
	}
}

func TestFileStore_LegacyFormat(t *testing.T) {
	t.Parallel()

	// Files written by the previous tooling use fractional epochs and nulls.
	path := filepath.Join(t.TempDir(), "tiny_token.json")
	legacy := `{"access_token": null, "refresh_token": null, "expires_at": 1712345678.123, "last_renewal": 0}`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	cred, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cred.Empty() {
		t.Error("null access token should be unauthenticated")
	}
	if cred.ExpiresAt != 1712345678.123 {
		t.Errorf("ExpiresAt = %v", cred.ExpiresAt)
	}
}

func TestFileStore_OverwriteReplacesContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny_token.json")
	store := NewFileStore(path)

	if err := store.Save(&models.Credential{AccessToken: "first", RefreshToken: "r1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&models.Credential{}); err != nil {
		t.Fatal(err)
	}

	cred, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cred.Empty() || cred.RefreshToken != "" {
		t.Errorf("credential after clearing = %+v", cred)
	}
}
