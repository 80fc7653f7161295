package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/musclegraph/pkg/catalog"
)

// DefaultDebounce collapses the burst of events an editor produces for a
// single save.
const DefaultDebounce = 200 * time.Millisecond

// Watch calls onChange after the file at path is written, created, renamed
// or removed, at most once per debounce window. It watches the parent
// directory so atomic replace-by-rename saves are seen. Watch blocks until
// ctx is cancelled and then returns nil.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&relevant == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, onChange)
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", abs, err)
		}
	}
}

// Reloading keeps the last snapshot of a store until it is invalidated.
// It lets a long-running server answer from memory and reload only when
// [Watch] reports a change.
type Reloading struct {
	inner Store

	mu      sync.Mutex
	current *catalog.Catalog
}

// NewReloading wraps inner.
func NewReloading(inner Store) *Reloading {
	return &Reloading{inner: inner}
}

// Snapshot returns the held snapshot, loading it first if needed.
// A failed load is not held, so the next call retries.
func (r *Reloading) Snapshot(ctx context.Context) (*catalog.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return r.current, nil
	}
	c, err := r.inner.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	r.current = c
	return c, nil
}

// Invalidate drops the held snapshot.
func (r *Reloading) Invalidate() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

// Close closes the wrapped store.
func (r *Reloading) Close() error { return r.inner.Close() }
