package devserver

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay groups the bursts of events editors emit for a single save.
const DebounceDelay = 100 * time.Millisecond

// Watcher reports changes below a set of directory trees.
type Watcher struct {
	roots    []string
	onChange func(path string)
	logger   *slog.Logger
	delay    time.Duration
}

// NewWatcher creates a watcher over roots. onChange receives the last path
// changed in each debounced burst.
func NewWatcher(logger *slog.Logger, onChange func(path string), roots ...string) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		roots:    roots,
		onChange: onChange,
		logger:   logger,
		delay:    DebounceDelay,
	}
}

// Run watches until ctx is cancelled. Missing roots are skipped so a fresh
// checkout without a public directory still works.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, root := range w.roots {
		if err := w.addTree(watcher, root); err != nil {
			_ = watcher.Close()
			return err
		}
	}

	go w.loop(ctx, watcher)
	return nil
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		w.logger.Debug("watch root missing", "path", root)
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(watcher, event.Name)
				}
			}

			if debounce != nil {
				debounce.Stop()
			}
			path := event.Name
			debounce = time.AfterFunc(w.delay, func() {
				w.onChange(path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
