// Package session implements the client side of the session lifecycle: a
// persisted credential, a state machine around it, and an API client that
// keeps the two honest against the server.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"platefeed/internal/models"
)

// Credential is the persisted login: the raw token plus a snapshot of the
// profile it was issued for. The snapshot is display data only; the token is
// the source of truth for identity.
type Credential struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// CredentialStore persists at most one credential.
type CredentialStore interface {
	// Load returns the stored credential, or (nil, nil) when none exists.
	Load() (*Credential, error)
	Save(cred *Credential) error
	Clear() error
}

// FileStore keeps the credential as a JSON file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("session: decode credential: %w", err)
	}
	if cred.Token == "" {
		return nil, errors.New("session: stored credential has no token")
	}
	return &cred, nil
}

func (s *FileStore) Save(cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("session: encode credential: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create credential directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write credential: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: clear credential: %w", err)
	}
	return nil
}
