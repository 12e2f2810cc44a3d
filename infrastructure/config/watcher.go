package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	"github.com/felixgeelhaar/droid-go/infrastructure/logging"
)

// ErrWatcherClosed indicates Watch was called after Close.
var ErrWatcherClosed = errors.New("watcher is closed")

// Reload is the outcome of re-reading a watched scenario.
type Reload struct {
	Scenario *domainconfig.Scenario
	Err      error
}

// Watcher reloads a scenario file whenever it changes on disk.
type Watcher struct {
	path     string
	loader   *Loader
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long to wait for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for the scenario at path.
func NewWatcher(path string, loader *Loader, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if loader == nil {
		loader = NewLoader()
	}

	w := &Watcher{
		path:     absPath,
		loader:   loader,
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts watching. Each settled change to the file produces one
// Reload; the channel closes when ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Reload, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.watcher = fw

	ch := make(chan Reload, 1)
	go w.loop(ctx, fw, ch)

	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Str("path", w.path)).
		Msg("watching scenario")
	return ch, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, ch chan<- Reload) {
	defer close(ch)
	defer fw.Close()

	name := filepath.Base(w.path)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			cfg, err := w.loader.LoadFile(w.path)
			select {
			case ch <- Reload{Scenario: cfg, Err: err}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logging.Warn().
				Add(logging.Component("config")).
				Add(logging.ErrorField(err)).
				Msg("file watcher error")
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		return err
	}
	return nil
}
