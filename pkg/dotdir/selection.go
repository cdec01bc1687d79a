package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	selectionFile = "selection.json"
)

// Selection is the chat the user last worked with. Commands that take an
// optional chat fall back to it, the way the web client reopens the active
// chat.
type Selection struct {
	ChatID int64  `json:"chat_id"`
	Title  string `json:"title,omitempty"`
}

// LoadSelection loads .chatline/selection.json.
// Returns nil, nil if no chat has been selected yet.
func (m *Manager) LoadSelection(overrideDir string) (*Selection, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, selectionFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	sel := &Selection{}
	if err := json.Unmarshal(data, sel); err != nil {
		return nil, fmt.Errorf("parsing selection: %w", err)
	}

	return sel, nil
}

// SaveSelection persists sel to .chatline/selection.json.
func (m *Manager) SaveSelection(sel *Selection, overrideDir string) error {
	if sel == nil {
		return errors.New("cannot save nil selection")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling selection: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, selectionFile), data, 0o600); err != nil {
		return fmt.Errorf("writing selection: %w", err)
	}

	return nil
}

// ClearSelection removes the selection file. Clearing an absent selection
// is not an error.
func (m *Manager) ClearSelection(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, selectionFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing selection: %w", err)
	}

	return nil
}
