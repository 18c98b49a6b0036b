// Package sqlitepath locates the SQLite database written by "deepstream serve".
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no candidate database exists.
var ErrNotFound = errors.New("could not find deepstream SQLite database; pass --sqlite")

// ResolveSQLitePath returns override when set, then DEEPSTREAM_SQLITE, then the
// first existing candidate file.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("DEEPSTREAM_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

func sqliteCandidates() []string {
	candidates := []string{
		"deepstream.db",
		"deepstream.sqlite",
		filepath.Join(".deepstream", "deepstream.db"),
		filepath.Join(".deepstream", "deepstream.sqlite"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".deepstream", "deepstream.db"),
			filepath.Join(home, ".deepstream", "deepstream.sqlite"),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "deepstream", "deepstream.db"),
			filepath.Join(xdgHome, "deepstream", "deepstream.sqlite"),
		}, candidates...)
	}

	return candidates
}
