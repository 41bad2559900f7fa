// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when files under a project change.
//
// Events are filtered by doublestar globs relative to the base directory and
// coalesced over a debounce window, so the callback sees every changed path
// once per burst.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")
	// ErrInvalidPattern is returned for a malformed glob.
	ErrInvalidPattern = errors.New("invalid glob pattern")

	defaultIgnores = []string{
		"**/.git/**",
		"**/node_modules/**",
		"**/__pycache__/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// OnChange receives the changed paths, relative to the base directory
	// and sorted.
	OnChange func(ctx context.Context, changed []string) error

	// Config configures a Watcher.
	Config struct {
		// BaseDir is the watched root; the working directory when empty.
		BaseDir string
		// Patterns select the paths that trigger OnChange. Empty matches all.
		Patterns []string
		// Ignore adds to the built-in ignore list.
		Ignore   []string
		Debounce time.Duration
		// ClearScreen writes an ANSI clear to Output before each run.
		ClearScreen bool
		Output      io.Writer
		OnChange    OnChange
		Logger      *log.Logger
	}

	// Watcher delivers debounced change sets to Config.OnChange.
	Watcher struct {
		cfg     Config
		base    string
		ignores []string
		fsw     *fsnotify.Watcher
		logger  *log.Logger
		started atomic.Bool

		mu      sync.Mutex
		pending map[string]struct{}
		timer   *time.Timer
		busy    atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under the base
// directory.
func New(cfg Config) (*Watcher, error) {
	for _, pat := range slices.Concat(cfg.Patterns, cfg.Ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pat)
		}
	}

	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.BaseDir, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{
		cfg:     cfg,
		base:    base,
		ignores: slices.Concat(defaultIgnores, cfg.Ignore),
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
	if err := w.addTree(base); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done. It returns nil on cancellation and
// an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher closed its event channel")
			}
			w.handle(ctx, evt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher closed its error channel")
			}
			if isFatal(err) {
				return fmt.Errorf("file watcher failed: %w", err)
			}
			w.logger.Warn("file watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, evt fsnotify.Event) {
	rel, err := filepath.Rel(w.base, evt.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return
	}
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "dir", rel, "err", err)
			}
		}
	}
	if !w.selected(rel) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.cfg.Debounce, func() { w.fire(ctx) })
		return
	}
	w.timer.Reset(w.cfg.Debounce)
}

// fire runs OnChange with the pending set. A run still in progress defers
// the new set by one more debounce period.
func (w *Watcher) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !w.busy.CompareAndSwap(false, true) {
		w.logger.Debug("previous run still in progress, deferring")
		w.mu.Lock()
		w.timer.Reset(w.cfg.Debounce)
		w.mu.Unlock()
		return
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	changed := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()
	if len(changed) == 0 {
		return
	}

	w.logger.Debug("files changed", "count", len(changed), "first", changed[0])
	if w.cfg.ClearScreen {
		fmt.Fprint(w.cfg.Output, "\033[2J\033[H")
	}
	if w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("run after change failed", "err", err)
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("closing file watcher", "err", err)
	}
}

// addTree watches root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.base, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (w.ignored(rel) || w.ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) selected(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// DefaultIgnores returns the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
