// Package sqlitepath finds the SQLite database used by "chatline serve".
package sqlitepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/chatline/pkg/dotdir"
)

// FileName is the database file chatline keeps next to its config.
const FileName = "chatline.db"

// EnvPath points serve at a database file when --dsn is not given.
const EnvPath = "CHATLINE_DB"

// ErrNotFound is returned when no existing database could be located.
var ErrNotFound = errors.New("could not find chatline SQLite database; pass --dsn")

// ResolveSQLitePath returns dsn when set, then $CHATLINE_DB. Otherwise it
// looks for an existing chatline.db in the chatline directory configDir
// resolves to (the same one holding config.toml), then under
// $XDG_DATA_HOME/chatline.
func ResolveSQLitePath(dsn, configDir string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if envPath := strings.TrimSpace(os.Getenv(EnvPath)); envPath != "" {
		return envPath, nil
	}

	candidates, err := candidates(configDir)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.Mode().IsRegular():
			return candidate, nil
		case err == nil:
			return "", fmt.Errorf("%s is not a regular file", candidate)
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
	}

	return "", ErrNotFound
}

func candidates(configDir string) ([]string, error) {
	dir, _, err := dotdir.NewManager().Resolve(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving chatline directory: %w", err)
	}

	out := []string{filepath.Join(dir, FileName)}
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		out = append(out, filepath.Join(xdg, "chatline", FileName))
	}
	return out, nil
}
