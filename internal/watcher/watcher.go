// Package watcher re-indexes PHP files as they change on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jward/phpreflect/internal/config"
	"github.com/jward/phpreflect/internal/grammar"
	"github.com/jward/phpreflect/internal/observability"
)

// Watcher collects write, create and remove events for PHP files and
// delivers them in debounced batches. Removed paths are delivered too; the
// callback decides what a missing file means.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	exclude   *config.Excluder
	onChange  func([]string)
	log       logrus.FieldLogger

	callbackMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]struct{}
	timer     *time.Timer

	done chan struct{}
}

// New creates a Watcher. A nil exclude watches everything.
func New(debounce time.Duration, exclude *config.Excluder, log logrus.FieldLogger, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		exclude:   exclude,
		onChange:  onChange,
		log:       log,
		pending:   make(map[string]struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Watch adds roots and their subdirectories and starts delivering events.
// Delivery stops when ctx is cancelled or Close is called.
func (w *Watcher) Watch(ctx context.Context, roots []string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root, true); err != nil {
			return err
		}
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) watchRecursive(root string, isRoot bool) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if !(isRoot && path == root) && w.exclude.Dir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.exclude.Dir(event.Name) {
				return
			}
			if err := w.watchRecursive(event.Name, false); err != nil {
				w.log.WithError(err).WithField("path", event.Name).Warn("failed to watch new directory")
				return
			}
			w.enqueueExistingFiles(event.Name)
			return
		}
	}

	if !grammar.IsPHPFile(event.Name) || w.exclude.File(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.scheduleChange(event.Name)
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if grammar.IsPHPFile(path) && !w.exclude.File(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}

// Close stops the watcher. Pending changes are dropped.
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()

	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.fsWatcher.Close()
}
