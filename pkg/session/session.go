// Package session persists the chat API bearer token and the signed-in
// email in session.toml inside the .chatline/ directory.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/chatline/pkg/dotdir"
)

const (
	sessionFile = "session.toml"

	currentVersion = 0
)

// Store manages reading and writing session.toml.
type Store struct {
	ddm        *dotdir.Manager
	targetPath string

	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a session Store. If override is non-empty it is used as
// the .chatline/ directory; otherwise the standard dotdir resolution applies.
func NewStore(override string) (*Store, error) {
	s := &Store{
		ddm: dotdir.NewManager(),
		now: time.Now,
	}

	target, err := s.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	s.targetPath = filepath.Join(target, sessionFile)

	return s, nil
}

// Load reads session.toml. Returns an empty Session if the file does not exist.
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) load() (*Session, error) {
	data, err := os.ReadFile(s.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{Version: currentVersion}, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	sess := &Session{}
	if err := toml.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	return sess, nil
}

// Save writes sess to session.toml with 0600 permissions, stamping SavedAt.
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return errors.New("cannot save nil session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(sess)
}

func (s *Store) save(sess *Session) error {
	sess.Version = currentVersion
	sess.SavedAt = s.now().UTC().Truncate(time.Second)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(sess); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	return s.replace(buf.Bytes())
}

// replace swaps data in for session.toml with a rename, so a concurrent
// reader or Watch never sees a truncated file.
func (s *Store) replace(data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(s.targetPath), sessionFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("writing temp session file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp session file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), s.targetPath); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}

	return nil
}

// SetLogin stores the bearer token and email returned by a successful login.
func (s *Store) SetLogin(apiTarget, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load()
	if err != nil {
		return err
	}

	sess.APITarget = apiTarget
	sess.Email = email
	sess.Token = token

	return s.save(sess)
}

// Clear drops the token and email. The API target is kept so a later login
// goes to the same server. Clearing an already empty session is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load()
	if err != nil {
		return err
	}

	if !sess.LoggedIn() && sess.Email == "" {
		return nil
	}

	sess.Token = ""
	sess.Email = ""

	return s.save(sess)
}

// Token returns the stored bearer token, or "" when signed out.
func (s *Store) Token() (string, error) {
	sess, err := s.Load()
	if err != nil {
		return "", err
	}

	return sess.Token, nil
}

// GetTarget returns the resolved path to the session file.
func (s *Store) GetTarget() string {
	return s.targetPath
}

// Watch calls fn with the freshly loaded session every time session.toml is
// written, created or removed by anyone, including other chatline processes.
// It blocks until ctx is done or the watcher fails.
func (s *Store) Watch(ctx context.Context, fn func(*Session)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating session watcher: %w", err)
	}
	defer watcher.Close()

	// The parent is watched because writers may replace the file.
	if err := watcher.Add(filepath.Dir(s.targetPath)); err != nil {
		return fmt.Errorf("watching session dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.targetPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			sess, err := s.Load()
			if err != nil {
				// A writer may be mid-way through; the next event will retry.
				continue
			}
			fn(sess)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("session watcher error: %w", err)
		}
	}
}
