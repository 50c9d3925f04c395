package store

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// Watcher invalidates cached memories when their backing files change on
// disk, so edits made by other processes become visible without a restart.
// Events caused by the store's own atomic saves are recognized by content
// hash and skipped.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewWatcher creates a watcher over the store's data directory
func NewWatcher(s *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, gserrors.NewStorageIO("watch", s.Dir(), err)
	}
	return &Watcher{
		store:   s,
		watcher: fsw,
	}, nil
}

// Start begins watching. It returns once the directory is registered; event
// handling runs in a background goroutine until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return gserrors.NewStorageIO("watch", w.store.Dir(), err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true

	w.wg.Add(1)
	go w.run()

	debug.LogStore("watching %s\n", w.store.Dir())
	return nil
}

// Stop cancels event handling and waits for the background goroutine
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	w.cancel()
	w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.LogStore("watch error: %v\n", err)
		}
	}
}

// handleEvent reacts to a single filesystem event. Only memory data files
// are considered; everything else in the directory is ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	matched, _ := doublestar.Match(memoryFilePattern, name)
	if !matched {
		return
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if w.store.isSelfWrite(event.Name) {
			debug.LogStore("watch: own write to %s, keeping cache\n", name)
			return
		}
		debug.LogStore("watch: external change to %s, invalidating\n", name)
		w.store.invalidateFile(name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		debug.LogStore("watch: %s removed, invalidating\n", name)
		w.store.invalidateFile(name)
	}
}
