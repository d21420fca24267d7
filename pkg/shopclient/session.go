package shopclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

// ErrNoSession is returned by a Store that holds nothing.
var ErrNoSession = errors.New("no saved session")

// SessionData is what survives a restart: the raw token and the account it was issued for.
type SessionData struct {
	Token string                `json:"token"`
	User  transport.AccountView `json:"user"`
}

type Store interface {
	Load() (*SessionData, error)
	Save(*SessionData) error
	Clear() error
}

// Session holds the signed-in account. Call Load on start, Save on login and Clear on logout.
type Session struct {
	store Store

	mu   sync.RWMutex
	data *SessionData
}

func NewSession(store Store) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Session{store: store}
}

// Load restores a saved session. An empty store is not an error.
func (s *Session) Load() error {
	d, err := s.store.Load()
	if errors.Is(err, ErrNoSession) {
		d, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
	return nil
}

func (s *Session) Save(d SessionData) error {
	if err := s.store.Save(&d); err != nil {
		return err
	}
	s.mu.Lock()
	s.data = &d
	s.mu.Unlock()
	return nil
}

func (s *Session) Clear() error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return s.store.Clear()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return ""
	}
	return s.data.Token
}

func (s *Session) User() (transport.AccountView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return transport.AccountView{}, false
	}
	return s.data.User, true
}

// Valid reports whether the token is still usable at now, by the same rule the server applies.
func (s *Session) Valid(now time.Time) bool {
	id, err := tokens.Decode(s.Token())
	if err != nil {
		return false
	}
	return !tokens.Expired(id.ExpiresAt, now)
}

func (s *Session) IsAdmin(now time.Time) bool {
	id, err := tokens.Decode(s.Token())
	return err == nil && !tokens.Expired(id.ExpiresAt, now) && id.Role == models.RoleAdmin
}

type MemoryStore struct {
	mu   sync.Mutex
	data *SessionData
}

func (m *MemoryStore) Load() (*SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoSession
	}
	d := *m.data
	return &d, nil
}

func (m *MemoryStore) Save(d *SessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.data = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// FileStore keeps the session as a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func (f *FileStore) Load() (*SessionData, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var d SessionData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	if d.Token == "" {
		return nil, ErrNoSession
	}
	return &d, nil
}

func (f *FileStore) Save(d *SessionData) error {
	return writeJSON(f.Path, d)
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
