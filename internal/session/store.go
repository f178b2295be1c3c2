package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// TokenKey is the fixed storage key of the mobile session token.
	TokenKey = "sportsbook.mobileToken"
	// CookieKey holds the serialized cookie session next to the token.
	CookieKey = "sportsbook.cookies"
)

// TokenStore persists the session between runs: the mobile token and the cookies
// the backend uses for reads. Load and LoadCookies return "" and no error when
// nothing is stored. Clear removes both.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	LoadCookies(ctx context.Context) (string, error)
	SaveCookies(ctx context.Context, cookies string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	token   string
	cookies string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadCookies(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookies, nil
}

func (s *MemoryStore) SaveCookies(_ context.Context, cookies string) error {
	s.mu.Lock()
	s.cookies = cookies
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token, s.cookies = "", ""
	s.mu.Unlock()
	return nil
}

// FileStore is a small JSON key/value file; the token lives under TokenKey and the
// cookies under CookieKey. Other keys in the file are preserved.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the per-user location of the store file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sportsbook", "session.json")
}

func (s *FileStore) Load(_ context.Context) (string, error) {
	return s.get(TokenKey)
}

func (s *FileStore) Save(_ context.Context, token string) error {
	return s.set(TokenKey, token)
}

func (s *FileStore) LoadCookies(_ context.Context) (string, error) {
	return s.get(CookieKey)
}

func (s *FileStore) SaveCookies(_ context.Context, cookies string) error {
	return s.set(CookieKey, cookies)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	_, hasToken := values[TokenKey]
	_, hasCookies := values[CookieKey]
	if !hasToken && !hasCookies {
		return nil
	}
	delete(values, TokenKey)
	delete(values, CookieKey)
	return s.write(values)
}

func (s *FileStore) get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
