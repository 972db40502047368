package filesystem

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long a Watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// ErrWatcherClosed is returned when starting a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Watcher calls a function after a single file changes.
//
// It watches the file's directory rather than the file so that editors which
// save by renaming a temporary file over the original are still seen.
// Bursts of events are collapsed: the callback runs once the file has been
// quiet for the debounce interval. Callbacks never run concurrently.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)

	mu      sync.Mutex
	closed  bool
	started bool
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for path. A non-positive debounce selects
// DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if abs, err := filepath.Abs(ResolvePath(path)); err == nil {
		path = abs
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It returns once the watch is registered; events are
// handled in the background until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return errors.New("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.fsw = fsw
	w.started = true
	go w.loop(ctx, fsw)
	logger.Debug("Watching %s", w.path)
	return nil
}

// Close stops the watcher and waits for a running callback to return. It
// must not be called from the callback.
// It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	fsw, started := w.fsw, w.started
	w.mu.Unlock()

	if !started {
		return nil
	}
	err := fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = fsw.Close()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error on %s: %v", w.path, err)

		case <-timer.C:
			logger.Debug("Detected change to %s", w.path)
			if w.onChange != nil {
				w.onChange(ctx)
			}
		}
	}
}

// relevant reports whether event is a write or create of the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
