// Package watcher reports changes to files on disk.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before a change is
// reported
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches files and directories for writes
type Watcher struct {
	paths    []string
	onChange func(path string)
	debounce time.Duration
	filter   func(path string) bool
	logger   *slog.Logger
}

// New creates a watcher calling onChange with the absolute path of every
// changed file. Directories are watched recursively.
func New(paths []string, onChange func(path string)) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: DefaultDebounce,
		filter:   func(string) bool { return true },
		logger:   slog.Default(),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithFilter restricts reported changes to paths accepted by f
func (w *Watcher) WithFilter(f func(path string) bool) *Watcher {
	w.filter = f
	return w
}

// WithLogger sets the logger
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	w.logger = l
	return w
}

// Watch blocks until ctx is cancelled or the underlying watcher fails.
// Pending debounced callbacks are dropped on return.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Files are watched through their directory so editors that replace
	// the file on save are still seen.
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	var roots []string
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			w.logger.Warn("not watching missing path", "path", abs)
			continue
		}
		if info.IsDir() {
			roots = append(roots, abs)
			_ = filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					dirs[p] = true
				}
				return nil
			})
			continue
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}
	w.logger.Info("watching for changes", "files", len(files), "dirs", len(dirs))

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			path, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if !files[path] && !within(path, roots) {
				continue
			}
			if !w.filter(path) {
				continue
			}

			mu.Lock()
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				w.logger.Info("file changed", "path", path)
				w.onChange(path)
			})
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func within(path string, roots []string) bool {
	for _, root := range roots {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
