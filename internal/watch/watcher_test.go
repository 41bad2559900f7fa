// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taskgrove/grove/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func start(t *testing.T, cfg Config) (cancel func()) {
	t.Helper()
	cfg.Logger = log.New(io.Discard)
	if cfg.Debounce == 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	return func() {
		stop()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}
}

func wait(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := newRecorder()
	stop := start(t, Config{BaseDir: dir, Debounce: 150 * time.Millisecond, OnChange: r.onChange})

	for _, name := range []string{"b.md", "a.md", "c.md"} {
		testutil.MustWriteFile(t, filepath.Join(dir, name), "x")
		time.Sleep(10 * time.Millisecond)
	}
	wait(t, r)
	time.Sleep(300 * time.Millisecond)
	stop()

	calls := r.snapshot()
	if len(calls) != 1 {
		t.Fatalf("OnChange called %d times, want 1: %v", len(calls), calls)
	}
	if got := strings.Join(calls[0], ","); got != "a.md,b.md,c.md" {
		t.Errorf("changed = %s, want a.md,b.md,c.md", got)
	}
}

func TestWatcher_PatternsAndIgnores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, "docs"))
	testutil.MustMkdirAll(t, filepath.Join(dir, "docs", "drafts"))
	r := newRecorder()
	stop := start(t, Config{
		BaseDir:  dir,
		Patterns: []string{"docs/**/*.md"},
		Ignore:   []string{"docs/drafts/**"},
		OnChange: r.onChange,
	})
	defer stop()

	testutil.MustWriteFile(t, filepath.Join(dir, "main.go"), "package main")
	testutil.MustWriteFile(t, filepath.Join(dir, "docs", "drafts", "wip.md"), "x")
	testutil.MustWriteFile(t, filepath.Join(dir, "docs", "index.md"), "x")
	wait(t, r)

	for _, call := range r.snapshot() {
		for _, p := range call {
			if p != "docs/index.md" {
				t.Errorf("unexpected change %q", p)
			}
		}
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := newRecorder()
	stop := start(t, Config{BaseDir: dir, Patterns: []string{"**/*.cue"}, OnChange: r.onChange})
	defer stop()

	testutil.MustMkdirAll(t, filepath.Join(dir, "tasks"))
	time.Sleep(100 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(dir, "tasks", "ci.cue"), "tasks: []")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-r.fired:
			for _, call := range r.snapshot() {
				for _, p := range call {
					if p == "tasks/ci.cue" {
						return
					}
				}
			}
		case <-deadline:
			t.Fatalf("no change reported for tasks/ci.cue: %v", r.snapshot())
		}
	}
}

func TestWatcher_ClearScreen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := newRecorder()
	out := &lockedWriter{}
	stop := start(t, Config{BaseDir: dir, ClearScreen: true, Output: out, OnChange: r.onChange})
	testutil.MustWriteFile(t, filepath.Join(dir, "a.txt"), "x")
	wait(t, r)
	stop()

	if !strings.HasPrefix(out.String(), "\033[2J\033[H") {
		t.Errorf("output = %q, want clear sequence", out.String())
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir(), Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	tests := []Config{
		{Patterns: []string{"docs/[.md"}},
		{Ignore: []string{"{a,b"}},
	}
	for _, cfg := range tests {
		cfg.BaseDir = t.TempDir()
		if _, err := New(cfg); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("New(%v) error = %v, want ErrInvalidPattern", cfg.Patterns, err)
		}
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: DefaultIgnores()}
	tests := []struct {
		rel  string
		want bool
	}{
		{".git/HEAD", true},
		{"web/node_modules/x/index.js", true},
		{"notes.md.swp", true},
		{"docs/.DS_Store", true},
		{"docs/index.md", false},
		{".grove/docs.cue", false},
	}
	for _, tt := range tests {
		if got := w.ignored(tt.rel); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	got := DefaultIgnores()
	got[0] = "changed"
	if DefaultIgnores()[0] == "changed" {
		t.Error("DefaultIgnores() returned the shared slice")
	}
}

type lockedWriter struct {
	mu sync.Mutex
	b  strings.Builder
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *lockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

