package persist

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"larder/internal/catalog"
	"larder/internal/logging"
	"larder/internal/notify"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the store's in-memory mirror when the catalog file
// changes on disk, closing the inconsistency window left by
// out-of-process writers (Remove read-repairs, Add and Get do not).
//
// The root directory is watched rather than the file itself: Save
// replaces the catalog by rename, which would invalidate a watch bound
// to the old file. The store's own writes fire events too; those reloads
// are harmless because file and mirror already agree. Clear removes the
// watched directory; close and recreate the watcher after a Clear.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	stop     chan struct{}
	reloaded *notify.Signal
	logger   *slog.Logger
}

// NewWatcher starts watching store's catalog. A nil logger disables
// logging.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}
	if err := fsw.Add(store.Dir()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	w := &Watcher{
		store:    store,
		watcher:  fsw,
		stop:     make(chan struct{}),
		reloaded: notify.NewSignal(),
		logger:   logging.Default(logger).With("component", "catalog-watcher"),
	}
	go w.loop()
	w.logger.Info("watching catalog", "path", store.file.Path())
	return w, nil
}

// Reloaded returns a channel that is closed after the next catalog
// reload. Re-call after each wakeup to arm the next one.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded.C()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stop:
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(ev.Name) != catalog.FileName {
				continue
			}
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.reload(); err != nil {
		w.logger.Warn("catalog reload failed", "error", err)
		return
	}
	w.reloaded.Notify()
	w.logger.Debug("catalog reloaded")
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}
