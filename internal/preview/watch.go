// Package preview serves a built output tree and rebuilds it when the
// source tree changes.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/mirror"
)

// DefaultDebounce is how long the watcher waits for the tree to settle.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers debounced rebuilds on source tree changes.
type Watcher struct {
	root     string
	patterns []string
	ignore   mirror.Matcher
	exclude  []string
	debounce time.Duration
	rebuild  RebuildFunc
	status   *BuildStatus
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithIgnore skips files and directories with these base names or globs at
// any level.
func WithIgnore(names ...string) WatchOption {
	return func(w *Watcher) { w.patterns = append(w.patterns, names...) }
}

// WithExclude skips everything below the given directories, typically the output tree.
func WithExclude(dirs ...string) WatchOption {
	return func(w *Watcher) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				w.exclude = append(w.exclude, abs)
			}
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithStatus records every rebuild result in s.
func WithStatus(s *BuildStatus) WatchOption {
	return func(w *Watcher) { w.status = s }
}

// NewWatcher returns a Watcher for the tree at root.
func NewWatcher(root string, rebuild RebuildFunc, opts ...WatchOption) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		rebuild:  rebuild,
		status:   &BuildStatus{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ignore = mirror.NewMatcher(w.patterns)
	return w
}

// Run watches until ctx is done. Rebuilds never overlap: changes seen while
// a rebuild runs collapse into one follow-up rebuild.
func (w *Watcher) Run(ctx context.Context) error {
	absRoot, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	w.root = absRoot
	w.addDirsRecursive(fw, absRoot)

	deb := newDebouncer(w.debounce)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildLoop(ctx, deb.fire)
	}()
	defer func() {
		deb.stop()
		wg.Wait()
	}()

	slog.Info("Watching for changes", logfields.Path(absRoot))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, deb.trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context, req <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			slog.Info("Change detected; rebuilding site")
			err := w.rebuild(ctx)
			w.status.Record(err)
			if err != nil && ctx.Err() == nil {
				slog.Warn("rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", slog.String("dir", path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports whether a change at path must not trigger a rebuild.
func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	if rel, err := filepath.Rel(w.root, path); err == nil {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if w.ignore.Match(part) {
				return true
			}
		}
	}
	return shouldIgnoreEvent(path)
}

// shouldIgnoreEvent returns true for editor and OS noise. Other dotfiles
// are mirrored into the output, so they still trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if base == ".DS_Store" || strings.HasPrefix(base, ".#") {
		return true
	}

	// Ignore editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db" || base == "4913"
}

// debouncer delivers one tick on fire after trigger calls stop for delay.
// fire holds at most one pending tick.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	fire    chan struct{}
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, fire: make(chan struct{}, 1)}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.fire <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
