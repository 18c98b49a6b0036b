package sysmsg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/deepstream/pkg/logger"
)

// LoadFile reads a prompt file into store. Surrounding whitespace is trimmed.
func LoadFile(path string, store Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading system message file: %w", err)
	}
	store.Set(strings.TrimSpace(string(data)))
	return nil
}

// WatchFile loads path into store and reloads it on every write or create
// until ctx is done. The parent directory is watched so editors that replace
// the file on save are picked up. WatchFile returns nil when ctx is done.
func WatchFile(ctx context.Context, path string, store Store, log *slog.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	if err := LoadFile(path, store); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating system message watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching system message dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := LoadFile(path, store); err != nil {
				// Transient during atomic replace; the following Create retries.
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				log.Warn("failed to reload system message", "path", path, "error", err)
				continue
			}
			log.Info("system message reloaded", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("system message watcher error: %w", err)
		}
	}
}
