package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches bursts of filesystem events into one rescan.
const defaultDebounce = 2 * time.Second

// Watch monitors the roots and invokes onScan after changes settle.
// Blocks until the context is cancelled. Directory roots are watched
// recursively; new subdirectories are picked up as they appear.
func Watch(ctx context.Context, roots []string, debounce time.Duration, onScan func() error, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range roots {
		if err := addRecursive(watcher, root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := 0

	logger.Info("watching for changes", "roots", strings.Join(roots, ","))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			base := filepath.Base(event.Name)
			if strings.HasPrefix(base, ".") || skipDirs[base] {
				continue
			}

			// Newly created directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}

			pending++
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)

		case <-timer.C:
			if pending == 0 {
				continue
			}
			logger.Info("changes settled, rescanning", "events", pending)
			pending = 0
			if err := onScan(); err != nil {
				logger.Error("rescan failed", "error", err)
			}
		}
	}
}

// addRecursive registers a path and, for directories, every
// non-skipped subdirectory beneath it.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
