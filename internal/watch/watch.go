// Package watch re-runs work whenever catalog files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/blake2b"
)

// Config controls what is watched.
type Config struct {
	Dirs           []string
	Exts           []string
	IgnorePatterns []string
	Debounce       time.Duration
}

// DefaultConfig watches JSON files in dirs.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:           dirs,
		Exts:           []string{".json"},
		IgnorePatterns: []string{"*.tmp", "*~", ".#*", "*.swp"},
		Debounce:       500 * time.Millisecond,
	}
}

// OnChange receives the files whose content changed during one burst.
type OnChange func(ctx context.Context, changed []string)

// Watcher batches file events, drops saves that leave the bytes unchanged
// and hands the rest to an OnChange callback, one burst at a time.
type Watcher struct {
	config  Config
	logger  *slog.Logger
	fw      *fsnotify.Watcher
	digests map[string][blake2b.Size256]byte
	dirs    map[string]struct{}

	mu sync.Mutex
	// pending maps a path to whether it counts as changed without a
	// digest comparison.
	pending map[string]bool
	timer   *time.Timer
	fire    chan struct{}
}

func New(config Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		config:  config,
		logger:  logger,
		fw:      fw,
		digests: make(map[string][blake2b.Size256]byte),
		dirs:    make(map[string]struct{}),
		pending: make(map[string]bool),
		fire:    make(chan struct{}, 1),
	}, nil
}

// Run watches until ctx is done. onChange is never called concurrently.
func (w *Watcher) Run(ctx context.Context, onChange OnChange) error {
	defer w.fw.Close()
	for _, dir := range w.config.Dirs {
		if err := w.addWatchDir(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watching for changes", "dirs", w.config.Dirs)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)
		case <-w.fire:
			if changed := w.flush(); len(changed) > 0 {
				onChange(ctx, changed)
			}
		}
	}
}

// addWatchDir watches dir and its subdirectories and records the digest of
// every file already present.
func (w *Watcher) addWatchDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.fw.Add(path); err != nil {
				return err
			}
			w.dirs[path] = struct{}{}
			return nil
		}
		if w.shouldHandleFile(path) {
			w.Changed(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addWatchDir(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			w.schedule(event.Name, true)
			return
		}
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, ok := w.dirs[event.Name]; ok {
			w.logger.Debug("directory event", "event", event.Op.String(), "dir", event.Name)
			w.forgetDir(event.Name)
			w.schedule(event.Name, true)
			return
		}
	}
	if !w.shouldHandleFile(event.Name) {
		return
	}
	w.logger.Debug("file event", "event", event.Op.String(), "file", event.Name)
	w.schedule(event.Name, false)
}

// forgetDir drops the watches and digests below a directory that left the
// tree, so files that reappear there later count as new.
func (w *Watcher) forgetDir(dir string) {
	prefix := dir + string(filepath.Separator)
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			// renamed directories keep their inotify watch
			_ = w.fw.Remove(d)
			delete(w.dirs, d)
		}
	}
	for f := range w.digests {
		if strings.HasPrefix(f, prefix) {
			delete(w.digests, f)
		}
	}
}

// schedule restarts the debounce timer for the current burst.
func (w *Watcher) schedule(path string, force bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = w.pending[path] || force
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// flush drains the pending set and keeps the paths whose content changed.
// Directories that appeared or left the tree always count as changes.
func (w *Watcher) flush() []string {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var changed []string
	for _, p := range paths {
		if pending[p] {
			changed = append(changed, p)
			continue
		}
		if w.Changed(p) {
			changed = append(changed, p)
		}
	}
	return changed
}

// Changed records the current digest of path and reports whether it differs
// from the previous one. A removed file counts as changed once.
func (w *Watcher) Changed(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_, had := w.digests[path]
			delete(w.digests, path)
			return had
		}
		w.logger.Warn("failed to read changed file", "file", path, "error", err)
		return true
	}
	sum := blake2b.Sum256(content)
	prev, had := w.digests[path]
	w.digests[path] = sum
	return !had || prev != sum
}

// shouldHandleFile filters by extension and ignore patterns.
func (w *Watcher) shouldHandleFile(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}
	if len(w.config.Exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, allowed := range w.config.Exts {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
