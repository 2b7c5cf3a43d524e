package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TokenFileName is the persisted token file inside the config directory.
const TokenFileName = "github_token.json"

type persistedToken struct {
	AccessToken string `json:"access_token"`
}

// TokenFile persists the access token with owner-only permissions.
type TokenFile struct {
	path string
}

// NewTokenFile returns the token file under configDir.
func NewTokenFile(configDir string) *TokenFile {
	return &TokenFile{path: filepath.Join(configDir, TokenFileName)}
}

// Path returns the file location.
func (f *TokenFile) Path() string { return f.path }

// Load returns the persisted token, or "" when none is stored.
func (f *TokenFile) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	var tok persistedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	return tok.AccessToken, nil
}

// Save writes token to disk, replacing any previous value.
func (f *TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.MarshalIndent(persistedToken{AccessToken: token}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(f.path, 0o600)
}

// Delete removes the persisted token. A missing file is not an error.
func (f *TokenFile) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
