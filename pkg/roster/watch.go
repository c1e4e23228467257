package roster

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/racepace/log"
)

// Watcher provides the roster of a file and reloads it when the file
// changes. A failed reload keeps the previous roster.
type Watcher struct {
	ctx      context.Context
	path     string
	jsonPath string
	log      *log.Logger
	mu       sync.RWMutex
	current  Roster
	reloaded chan struct{}
}

type WatcherOption func(*Watcher)

func WithJSONPath(p string) WatcherOption {
	return func(w *Watcher) {
		w.jsonPath = p
	}
}

// WithReloadNotify signals ch (non blocking) after each successful reload.
func WithReloadNotify(ch chan struct{}) WatcherOption {
	return func(w *Watcher) {
		w.reloaded = ch
	}
}

// NewWatcher loads path and watches it until ctx is done.
func NewWatcher(ctx context.Context, path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		ctx:  ctx,
		path: path,
		log:  log.GetFromContext(ctx).Named("roster"),
	}
	for _, opt := range opts {
		opt(w)
	}
	r, err := LoadFile(w.path, w.jsonPath)
	if err != nil {
		return nil, err
	}
	w.current = r
	w.log.Info("roster loaded", log.String("file", path), log.Int("riders", r.Len()))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return w, nil
	}
	if err := watcher.Add(path); err != nil {
		w.log.Error("could not watch roster file", log.ErrorField(err))
		watcher.Close()
		return w, nil
	}
	go w.watch(watcher)
	return w, nil
}

func (w *Watcher) Current() Roster {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

//nolint:cyclop // by design
func (w *Watcher) watch(watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("context done, stopping roster reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				w.log.Info("watcher events channel closed, stopping roster reload")
				return
			}
			w.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {

				w.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				w.log.Info("watcher errors channel closed, stopping roster reload")
				return
			}
			w.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

func (w *Watcher) reload() {
	r, err := LoadFile(w.path, w.jsonPath)
	if err != nil {
		w.log.Error("could not reload roster, keeping previous one", log.ErrorField(err))
		return
	}
	w.mu.Lock()
	w.current = r
	w.mu.Unlock()
	w.log.Info("roster reloaded", log.String("file", w.path), log.Int("riders", r.Len()))
	if w.reloaded != nil {
		select {
		case w.reloaded <- struct{}{}:
		default:
		}
	}
}
