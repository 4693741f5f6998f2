// Package session persists the signed-in session between invocations.
//
// Only the session client in internal/backend/restapi writes to a Store;
// everything else obtains the credential through that client.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"todo/internal/service"
)

// ErrNoToken is returned by Load when no session is stored.
var ErrNoToken = errors.New("no stored token")

// Record is what gets persisted: the token plus the user it was issued to.
type Record struct {
	oauth2.Token
	User service.User `json:"user"`
}

// NewRecord builds a Record for a freshly issued access token.
// The expiry is taken from the JWT exp claim when present. It is not verified
// and only used for display; the backend decides whether the token is valid.
func NewRecord(accessToken, tokenType string, user service.User) Record {
	if strings.TrimSpace(tokenType) == "" {
		tokenType = "bearer"
	}
	return Record{
		Token: oauth2.Token{
			AccessToken: accessToken,
			TokenType:   tokenType,
			Expiry:      tokenExpiry(accessToken),
		},
		User: user,
	}
}

func tokenExpiry(raw string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Store holds at most one Record.
type Store interface {
	// Load returns the stored record or ErrNoToken.
	Load() (Record, error)

	// Save replaces the stored record.
	Save(rec Record) error

	// Clear removes the stored record. Clearing an empty store is not an error.
	Clear() error
}

// FileStore keeps the record in a JSON file with mode 0600.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the token file. A missing file returns ErrNoToken.
func (s *FileStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNoToken
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("invalid token file: %w", err)
	}
	if rec.AccessToken == "" {
		return Record{}, ErrNoToken
	}
	return rec, nil
}

func (s *FileStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in memory. Used by tests and embedders.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return Record{}, ErrNoToken
	}
	return *s.rec, nil
}

func (s *MemoryStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
