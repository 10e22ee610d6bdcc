// Package watcher re-runs disassembly when XML files under a directory change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/fsutil"
	"github.com/leefowlercu/xml-disassembler/internal/metrics"
	"github.com/leefowlercu/xml-disassembler/internal/walker"
)

// Handler processes one changed file.
type Handler func(ctx context.Context, path string) error

// Stats contains counters for watcher activity.
type Stats struct {
	WatchedDirs    int
	EventsReceived int64
	Runs           int64
	Unchanged      int64
	Throttled      int64
	Failures       int64
	DegradedMode   bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a path must be quiet before it is processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithMaxRunsPerSecond limits handler runs. Zero or less means unlimited.
func WithMaxRunsPerSecond(r float64) Option {
	return func(w *Watcher) {
		w.maxRuns = r
	}
}

// WithFilter sets the filter deciding which files and directories are watched.
func WithFilter(f *walker.Filter) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher watches a directory tree and calls its Handler for each XML file
// whose content settled to something new.
type Watcher struct {
	root    string
	handler Handler
	filter  *walker.Filter
	logger  *slog.Logger

	debounce time.Duration
	maxRuns  float64

	fsw       *fsnotify.Watcher
	coalescer *Coalescer
	limiter   *rate.Limiter

	mu     sync.Mutex
	hashes map[string]string
	stats  Stats
}

// New creates a Watcher for root.
func New(root string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path; %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("watch", abs, err)
		}
		return nil, errs.FS("watch", abs, err)
	}
	if !info.IsDir() {
		return nil, errs.NotFound("watch", abs, fmt.Errorf("not a directory"))
	}

	w := &Watcher{
		root:     abs,
		handler:  handler,
		logger:   slog.Default(),
		debounce: 500 * time.Millisecond,
		maxRuns:  2,
		hashes:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.filter == nil {
		w.filter = walker.NewFilter(walker.WithExtensions(".xml"))
	}
	w.logger = w.logger.With("component", "watcher")

	limit := rate.Inf
	if w.maxRuns > 0 {
		limit = rate.Limit(w.maxRuns)
	}
	w.limiter = rate.NewLimiter(limit, 1)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher; %w", err)
	}
	w.fsw = fsw
	w.coalescer = NewCoalescer(w.debounce)

	return w, nil
}

// Root returns the absolute path being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Run watches until ctx is done. Files present at start are recorded but not
// processed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.coalescer.Stop()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("watching directory",
		"root", w.root,
		"dirs", len(w.fsw.WatchList()),
		"debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("fsnotify error", "error", err)
		case ch, ok := <-w.coalescer.Changes():
			if !ok {
				return nil
			}
			w.process(ctx, ch)
		}
	}
}

// Stats returns a snapshot of watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.WatchedDirs = len(w.fsw.WatchList())
	return s
}

// addTree watches dir and every directory below it that the filter accepts,
// and records the hashes of files already present.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			if w.accepts(p) {
				if sum, err := fsutil.HashFile(p); err == nil {
					w.setHash(p, sum)
				}
			}
			return nil
		}
		if p != w.root && (!w.filter.ShouldProcessDir(p) || walker.IsDisassemblyOutput(p)) {
			return fs.SkipDir
		}
		if err := w.addWatch(p); err != nil {
			w.logger.Warn("failed to add watch", "path", p, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory; %w", err)
	}
	return nil
}

func (w *Watcher) addWatch(path string) error {
	if err := w.fsw.Add(path); err != nil {
		if isWatchLimitError(err) {
			w.mu.Lock()
			w.stats.DegradedMode = true
			w.mu.Unlock()
			w.logger.Warn("watch limit reached, entering degraded mode", "path", path)
			return nil
		}
		return err
	}
	return nil
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	w.mu.Lock()
	w.stats.EventsReceived++
	w.mu.Unlock()

	if isEditorNoise(ev.Name) {
		return
	}

	if ev.Has(fsnotify.Create) && fsutil.IsDir(ev.Name) {
		if w.filter.ShouldProcessDir(ev.Name) && !w.insideOutput(ev.Name) {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}

	if !w.accepts(ev.Name) {
		return
	}

	var kind ChangeKind
	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		kind = ChangeRemove
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		kind = ChangeWrite
	default:
		return
	}
	w.coalescer.Add(Change{Path: ev.Name, Kind: kind, At: time.Now()})
}

// accepts reports whether path is a source file the watcher processes.
func (w *Watcher) accepts(path string) bool {
	return w.filter.ShouldProcessFile(path) && !w.insideOutput(path)
}

// insideOutput reports whether path lies in a disassembly output directory
// below the root.
func (w *Watcher) insideOutput(path string) bool {
	for dir := filepath.Dir(path); dir != w.root; dir = filepath.Dir(dir) {
		if !strings.HasPrefix(dir, w.root+string(filepath.Separator)) {
			return false
		}
		if walker.IsDisassemblyOutput(dir) {
			return true
		}
	}
	return false
}

func (w *Watcher) process(ctx context.Context, ch Change) {
	metrics.RecordWatchEvent(ch.Kind.String())

	if ch.Kind == ChangeRemove && !fsutil.IsFile(ch.Path) {
		w.forget(ch.Path)
		w.logger.Debug("file removed", "path", ch.Path)
		return
	}

	sum, err := fsutil.HashFile(ch.Path)
	if err != nil {
		w.forget(ch.Path)
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("failed to hash file", "path", ch.Path, "error", err)
		}
		return
	}

	w.mu.Lock()
	unchanged := w.hashes[ch.Path] == sum
	if unchanged {
		w.stats.Unchanged++
	}
	w.mu.Unlock()
	if unchanged {
		w.logger.Debug("content unchanged; skipping", "path", ch.Path)
		return
	}

	if !w.limiter.Allow() {
		metrics.WatchRunsThrottled.Inc()
		w.mu.Lock()
		w.stats.Throttled++
		w.mu.Unlock()
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
	}

	w.mu.Lock()
	w.stats.Runs++
	w.mu.Unlock()

	if err := w.handler(ctx, ch.Path); err != nil {
		w.mu.Lock()
		w.stats.Failures++
		w.mu.Unlock()
		w.logger.Error("failed to process changed file", "path", ch.Path, "error", err)
		return
	}
	w.setHash(ch.Path, sum)
}

func (w *Watcher) setHash(path, sum string) {
	w.mu.Lock()
	w.hashes[path] = sum
	w.mu.Unlock()
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.hashes, path)
	w.mu.Unlock()
}

// isEditorNoise reports whether path is a transient editor artifact.
func isEditorNoise(path string) bool {
	name := filepath.Base(path)

	// Vim swap files
	if strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".swo") || strings.HasSuffix(name, ".swn") {
		return true
	}
	// Vim write probe
	if name == "4913" {
		return true
	}
	// Emacs auto-save
	if strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#") {
		return true
	}
	return strings.HasSuffix(name, "~")
}

// isWatchLimitError checks if an error indicates watch limit exhaustion.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "too many open files") ||
		strings.Contains(s, "no space left on device") ||
		strings.Contains(s, "user limit on total number of inotify watches")
}
