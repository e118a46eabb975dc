// Package watch reloads a file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mcncl/schemaplay/internal/parser"
)

// DefaultDebounce is how long events settle before the file is read.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a single file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for path.
func New(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: path, debounce: DefaultDebounce, logger: logger}
}

// WithDebounce sets the settle time.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Start begins watching and returns once the watch is in place. onChange
// gets the new file content each time it changes. It runs on the watcher
// goroutine, so it must hand the content over rather than touch shared
// state. Watching stops when ctx is done.
//
// The directory is watched rather than the file, so editors that save by
// renaming a new file over the old one are followed.
func (w *Watcher) Start(ctx context.Context, onChange func(string)) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}

	last, err := parser.ReadFile(abs)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	go w.loop(ctx, fw, abs, last, onChange)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, path, last string, onChange func(string)) {
	defer func() { _ = fw.Close() }()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce reloads
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil

			content, err := parser.ReadFile(path)
			if err != nil {
				w.logger.Debug("failed to reload file", "path", path, "error", err)
				continue
			}
			if content == last {
				continue
			}
			last = content

			w.logger.Debug("file changed", "path", path, "bytes", len(content))
			onChange(content)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
