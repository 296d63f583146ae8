package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leofalp/uigen/core/schema"
	"github.com/leofalp/uigen/providers/observability"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher holds the latest successfully loaded catalog of a file and
// reloads it when the file changes. A file that fails to load is reported
// and the previous catalog stays current.
//
// Watcher satisfies schema.PropCatalog by delegating to Current, so a
// validator built on it always sees the latest catalog.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  atomic.Pointer[Catalog]
	debounce time.Duration
	observer observability.Provider
	onReload []func(*Catalog)

	mu      sync.Mutex
	timer   *time.Timer
	stopCh  chan struct{}
	stopped sync.Once
}

var _ schema.PropCatalog = (*Watcher)(nil)

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the file must stay quiet before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchObserver reports reloads and reload failures.
func WithWatchObserver(observer observability.Provider) WatchOption {
	return func(w *Watcher) {
		w.observer = observer
	}
}

// OnReload registers fn to run with every newly loaded catalog. It runs on
// the watcher's goroutine.
func OnReload(fn func(*Catalog)) WatchOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onReload = append(w.onReload, fn)
		}
	}
}

// Watch loads path and starts watching it. The directory is watched rather
// than the file so editors that replace the file on save are followed.
func Watch(path string, opts ...WatchOption) (*Watcher, error) {
	initial, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := fsWatcher.Add(filepath.Dir(absolute)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absolute), err)
	}

	w := &Watcher{
		path:     absolute,
		watcher:  fsWatcher,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.current.Store(initial)

	go w.run()
	return w, nil
}

// Current returns the latest catalog.
func (w *Watcher) Current() *Catalog {
	return w.current.Load()
}

func (w *Watcher) Version() string { return w.Current().Version() }
func (w *Watcher) Describe() string { return w.Current().Describe() }
func (w *Watcher) IsValidType(name string) bool { return w.Current().IsValidType(name) }
func (w *Watcher) ResolveAlias(name string) (string, bool) { return w.Current().ResolveAlias(name) }

func (w *Watcher) PropSpecs(typeName string) (map[string]schema.PropSpec, bool) {
	return w.Current().PropSpecs(typeName)
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.observer != nil {
				w.observer.Error(context.Background(), "catalog watcher error",
					observability.Error(err),
					observability.String(observability.AttrCatalogPath, w.path),
				)
			}
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	ctx := context.Background()
	next, err := LoadFile(w.path)
	if err != nil {
		if w.observer != nil {
			w.observer.Warn(ctx, "catalog reload failed, keeping previous version",
				observability.Error(err),
				observability.String(observability.AttrCatalogPath, w.path),
			)
		}
		return
	}

	w.current.Store(next)
	if w.observer != nil {
		w.observer.Info(ctx, "catalog reloaded",
			observability.String(observability.AttrCatalogPath, w.path),
			observability.String(observability.AttrCatalogVersion, next.Version()),
			observability.Int(observability.AttrComponentCount, next.Len()),
		)
	}
	for _, fn := range w.onReload {
		fn(next)
	}
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	var err error
	w.stopped.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
