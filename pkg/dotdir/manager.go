// Package dotdir manages the .chatline/ and ~/.chatline directories that hold
// the client configuration, the saved session and the selected chat.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".chatline"

	// EnvHome names a chatline directory used when no override is passed.
	EnvHome = "CHATLINE_HOME"
)

// Source tells where a resolved chatline directory came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceEnv      Source = "env"
	SourceProject  Source = "project"
	SourceHome     Source = "home"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute chatline directory for overrideDir, creating
// it with owner-only permissions when missing. See Resolve for the lookup.
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, _, err := m.Resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating chatline directory %s: %w", dir, err)
	}
	return dir, nil
}

// Resolve picks the chatline directory without touching the filesystem
// beyond stat calls. An explicit override wins, then $CHATLINE_HOME, then the
// nearest .chatline/ in the working directory or one of its parents, and
// finally ~/.chatline.
func (m *Manager) Resolve(overrideDir string) (string, Source, error) {
	if overrideDir != "" {
		dir, err := filepath.Abs(overrideDir)
		return dir, SourceOverride, err
	}

	if env := os.Getenv(EnvHome); env != "" {
		dir, err := filepath.Abs(env)
		return dir, SourceEnv, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("getting current directory: %w", err)
	}
	if dir, ok := findProjectDir(cwd); ok {
		return dir, SourceProject, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), SourceHome, nil
}

// findProjectDir walks from start towards the root looking for a .chatline
// directory. The home directory itself is skipped so ~/.chatline keeps its
// own Source.
func findProjectDir(start string) (string, bool) {
	home, _ := os.UserHomeDir()
	for dir := start; ; {
		if dir != home {
			candidate := filepath.Join(dir, dirName)
			info, err := os.Stat(candidate)
			if err == nil && info.IsDir() {
				return candidate, true
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", false
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
