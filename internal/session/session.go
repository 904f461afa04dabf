package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	// TokenKey holds the bearer credential
	TokenKey = "token"
	// GuestKey holds the guest-mode flag ("true" enables it)
	GuestKey = "isGuest"
)

// Session is a read-only snapshot of the persisted login state
type Session struct {
	Token string
	Guest bool
}

// HasCredential reports whether a non-empty bearer token is present
func (s Session) HasCredential() bool {
	return s.Token != ""
}

// Provider exposes the current session to the gate and the orchestrator
type Provider interface {
	GetSession(ctx context.Context) Session
}

// ProviderFunc adapts a plain function to Provider
type ProviderFunc func(ctx context.Context) Session

func (f ProviderFunc) GetSession(ctx context.Context) Session {
	return f(ctx)
}

// Static always returns the same session. Useful for tests.
type Static Session

func (s Static) GetSession(context.Context) Session {
	return Session(s)
}

// record is the on-disk shape; both values are strings like the browser keys they replace
type record struct {
	Token   string `yaml:"token,omitempty"`
	IsGuest string `yaml:"isGuest,omitempty"`
}

// FileStore persists the session in a small YAML file guarded by a file lock
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore returns a store backed by path. The file does not need to exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// DefaultPath returns $LOOKBOOK_SESSION_FILE or <user config dir>/lookbook/session.yaml
func DefaultPath() (string, error) {
	if p := os.Getenv("LOOKBOOK_SESSION_FILE"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "lookbook", "session.yaml"), nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// GetSession reads the file. A missing or unreadable file is an empty session.
func (s *FileStore) GetSession(ctx context.Context) Session {
	sess, err := s.Load()
	if err != nil {
		slog.Warn("Unable to read session file", "path", s.path, "err", err)
		return Session{}
	}
	return sess
}

// Load reads the session file under a shared lock
func (s *FileStore) Load() (Session, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}

	if err := s.lock.RLock(); err != nil {
		return Session{}, fmt.Errorf("failed to lock session file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Session{}, fmt.Errorf("failed to parse session file: %w", err)
	}

	return Session{Token: rec.Token, Guest: rec.IsGuest == "true"}, nil
}

// Save replaces the persisted session
func (s *FileStore) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock session file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	rec := record{Token: sess.Token}
	if sess.Guest {
		rec.IsGuest = "true"
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes both keys
func (s *FileStore) Clear() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock session file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// FromRequest reads the session from the browser cookies
func FromRequest(r *http.Request) Session {
	var sess Session
	if c, err := r.Cookie(TokenKey); err == nil {
		sess.Token = c.Value
	}
	if c, err := r.Cookie(GuestKey); err == nil {
		sess.Guest = c.Value == "true"
	}
	return sess
}

// WriteCookies persists sess in the browser. An empty session expires both cookies.
func WriteCookies(w http.ResponseWriter, sess Session) {
	guest := ""
	if sess.Guest {
		guest = "true"
	}
	for name, value := range map[string]string{TokenKey: sess.Token, GuestKey: guest} {
		c := &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if value == "" {
			c.MaxAge = -1
		}
		http.SetCookie(w, c)
	}
}

type ctxKey struct{}

// WithSession attaches sess to ctx
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session attached by WithSession
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(Session)
	return sess, ok
}

// Context is the provider used by the web UI: the session attached to the request context
var Context Provider = ProviderFunc(func(ctx context.Context) Session {
	sess, _ := FromContext(ctx)
	return sess
})
