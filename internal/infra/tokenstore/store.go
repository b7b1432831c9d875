// Package tokenstore persists the backend access and refresh tokens in a
// YAML file, the client's equivalent of browser local storage.
package tokenstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// ErrNoToken is returned by Token when no access token is stored.
var ErrNoToken = errors.New("no access token stored")

// fileFormat is the on-disk layout of the token file.
type fileFormat struct {
	AccessToken  string    `yaml:"access_token,omitempty"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	SavedAt      time.Time `yaml:"saved_at,omitempty"`
}

// Store holds the tokens in memory and mirrors every change to disk.
// It implements oauth2.TokenSource.
type Store struct {
	mu   sync.RWMutex
	path string
	data fileFormat
}

// Open loads the token file at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("token file path is required")
	}

	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, errors.Wrap(err, "failed to read token file")
	}
	if err := yaml.Unmarshal(data, &s.data); err != nil {
		return nil, errors.Wrap(err, "failed to parse token file")
	}
	return s, nil
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Token returns the stored access token.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{
		AccessToken:  s.data.AccessToken,
		RefreshToken: s.data.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// HasToken reports whether an access token is stored.
func (s *Store) HasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.AccessToken != ""
}

// Save stores tok and writes it to disk.
func (s *Store) Save(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("access token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fileFormat{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		SavedAt:      time.Now().UTC(),
	}
	return s.writeLocked()
}

// DropAccessToken forgets the access token but keeps the refresh token.
func (s *Store) DropAccessToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AccessToken = ""
	return s.writeLocked()
}

// Clear removes both tokens and deletes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fileFormat{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "failed to remove token file")
	}
	return nil
}

// writeLocked persists the current tokens with owner-only permissions.
// Must be called with lock held.
func (s *Store) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create token directory")
	}

	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return errors.Wrap(err, "failed to encode tokens")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write token file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace token file")
	}
	return nil
}
