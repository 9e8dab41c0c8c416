// Package watch reports policy file changes under a directory tree.
//
// Events are filtered through doublestar include patterns and coalesced over
// a debounce window, so an editor's write-rename-chmod burst on one save
// produces a single callback.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is flushed.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Include lists doublestar patterns relative to the root. Required.
	Include []string

	// Debounce is the quiet period before flushing. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger receives debug events. Nil discards.
	Logger *slog.Logger
}

// Watcher watches one directory tree.
type Watcher struct {
	root     string
	include  []string
	debounce time.Duration
	logger   *slog.Logger
	fs       *fsnotify.Watcher
}

// New creates a Watcher on root and registers every non-hidden directory
// beneath it. Call Close when done.
func New(root string, opts Options) (*Watcher, error) {
	if len(opts.Include) == 0 {
		return nil, fmt.Errorf("watch: at least one include pattern is required")
	}
	for _, p := range opts.Include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid include pattern %q", p)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: not a directory: %s", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		root:     root,
		include:  slices.Clone(opts.Include),
		debounce: opts.Debounce,
		logger:   opts.Logger,
		fs:       fsw,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Matches reports whether path (absolute or relative to the root) is a
// watched policy file.
func (w *Watcher) Matches(path string) bool {
	rel := path
	if filepath.IsAbs(path) || strings.HasPrefix(path, w.root) {
		r, err := filepath.Rel(w.root, path)
		if err != nil {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return false
	}
	for _, pattern := range w.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, calling onChange with the sorted, de-duplicated
// paths of matching files that were created, written, removed or renamed
// during each debounce window. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.logger.Debug("file event", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Debug("failed to watch directory", slog.String("path", event.Name), slog.Any("error", err))
					}
					continue
				}
			}
			if !relevant(event) || !w.Matches(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Debug("watcher error", slog.Any("error", err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)

			w.logger.Debug("flushing changes", slog.Int("count", len(paths)))
			onChange(paths)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// addTree registers dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.logger.Debug("watching directory", slog.String("path", path))
		return nil
	})
}
