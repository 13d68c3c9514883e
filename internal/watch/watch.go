// Package watch reformats files as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a file must stay quiet before the handler runs.
// Editors often write a file in several steps.
const DefaultSettle = 100 * time.Millisecond

// Handler is called with the path of a changed file.
type Handler func(ctx context.Context, path string) error

type Watcher struct {
	watcher *fsnotify.Watcher
	accept  func(path string) bool
	handler Handler
	logger  *zap.Logger
	settle  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	// running holds paths the handler is processing, ignore those it just
	// finished with. Events for either come from the handler's own write.
	running map[string]bool
	ignore  map[string]time.Time
}

// New creates a watcher over roots. Directories are watched recursively;
// accept filters which files reach handler.
func New(roots []string, accept func(string) bool, handler Handler, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		accept:  accept,
		handler: handler,
		logger:  logger,
		settle:  DefaultSettle,
		pending: make(map[string]*time.Timer),
		running: make(map[string]bool),
		ignore:  make(map[string]time.Time),
	}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// SetSettle overrides DefaultSettle.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(root))
	}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error adding directory to watcher: %w", err)
	}
	return nil
}

// Run dispatches events until ctx is done. It closes the underlying watcher
// on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if w.accept != nil && !w.accept(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running[event.Name] {
		return
	}
	if until, ok := w.ignore[event.Name]; ok {
		if time.Now().Before(until) {
			return
		}
		delete(w.ignore, event.Name)
	}

	// Restart the settle timer so bursts of writes trigger one run.
	if t, ok := w.pending[event.Name]; ok {
		t.Stop()
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.dispatch(ctx, path)
	})
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	w.running[path] = true
	w.mu.Unlock()

	err := w.handler(ctx, path)

	// Events of the handler's write may still be queued.
	w.mu.Lock()
	delete(w.running, path)
	w.ignore[path] = time.Now().Add(w.settle)
	w.mu.Unlock()

	switch {
	case err == nil:
		w.logger.Debug("processed", zap.String("file", path))
	case errors.Is(err, context.Canceled):
	default:
		w.logger.Error("error processing file", zap.String("file", path), zap.Error(err))
	}
}
