// Package watch re-runs a comparison when snapshot files change on disk.
//
// Events are debounced: a burst of writes to the same file collapses into a
// single callback once the file has been quiet for the debounce window.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"refdrift/internal/logging"
)

// DefaultDebounce is used when the caller passes a non-positive window.
const DefaultDebounce = 500 * time.Millisecond

// pollEvery is how often pending events are checked against the debounce
// window.
const pollEvery = 100 * time.Millisecond

// Watcher monitors a fixed set of files and invokes a callback with the
// paths that changed, once their events settle. The parent directories are
// watched rather than the files themselves: editors replace files via
// rename, which silently drops a direct file watch.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	targets  map[string]bool
	pending  map[string]time.Time
	debounce time.Duration
	onChange func(changed []string)
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New builds a watcher over the given file paths. onChange receives the
// settled paths, sorted, and runs on the watcher goroutine: a slow handler
// delays further notifications but never drops them.
func New(paths []string, debounce time.Duration, onChange func(changed []string)) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if onChange == nil {
		return nil, errors.New("nil change handler")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		targets:  make(map[string]bool, len(paths)),
		pending:  make(map[string]time.Time),
		debounce: debounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	return w, nil
}

// Start launches the event loop. It is non-blocking and idempotent.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	logging.Watch("Watching %d file(s), debounce %s", len(w.targets), w.debounce)
	go w.run(ctx)
	return nil
}

// Stop halts the event loop, waits for it to drain, and releases the
// underlying watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}
	logging.Watch("Watcher stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(pollEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Watcher context cancelled")
			return

		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)

		case <-tick.C:
			w.flushSettled()
		}
	}
}

// handleEvent records a change to a watched file. Chmod-only events and
// events for other files in the same directory are ignored.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.targets[abs] {
		return
	}
	logging.Get(logging.CategoryWatch).Debug("%s event for %s", ev.Op, abs)
	w.pending[abs] = time.Now()
}

// flushSettled fires the callback for every pending path whose last event is
// older than the debounce window.
func (w *Watcher) flushSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, p)
			delete(w.pending, p)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	sort.Strings(settled)
	logging.Watch("Change settled: %s", strings.Join(settled, ", "))
	w.onChange(settled)
}
