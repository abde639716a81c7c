// Package watcher reports PDF files created or rewritten in a directory.
package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DirWatcher calls a handler once per distinct content of each .pdf file in a
// directory. Bursts of events for the same file are debounced.
type DirWatcher struct {
	dir      string
	debounce time.Duration
	handle   func(path string)
	log      *zap.Logger

	watcher *fsnotify.Watcher

	mu     sync.Mutex
	hashes map[string]uint64
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates a watcher for dir. Files already present are not reported.
func New(dir string, debounce time.Duration, handle func(path string), log *zap.Logger) (*DirWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "watch %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("watch %s: not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %s", dir)
	}

	w := &DirWatcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		log:      log,
		watcher:  fw,
		hashes:   make(map[string]uint64),
		timers:   make(map[string]*time.Timer),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	for _, e := range entries {
		if path := filepath.Join(dir, e.Name()); isPDF(path) {
			if sum, err := hashFile(path); err == nil {
				w.hashes[path] = sum
			}
		}
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then waits for in-flight
// handlers and closes the underlying watcher.
func (w *DirWatcher) Run(ctx context.Context) error {
	defer w.wg.Wait()
	defer w.stopTimers()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if isPDF(event.Name) {
				w.schedule(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *DirWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(path)
}

// scheduleLocked (re)arms the debounce timer for path. w.mu must be held.
func (w *DirWatcher) scheduleLocked(path string) {
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}

	var t *time.Timer
	w.wg.Add(1)
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		current := w.timers[path] == t
		if current {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		// A timer that lost the race with a newer schedule or with shutdown
		// leaves the path to its successor.
		if current {
			w.fire(path)
		}
	})
	w.timers[path] = t
}

// fire runs the handler if the file content differs from the last run.
func (w *DirWatcher) fire(path string) {
	sum, err := hashFile(path)
	if err != nil {
		w.log.Warn("hash failed", zap.String("path", path), zap.Error(err))
		return
	}

	w.mu.Lock()
	prev, seen := w.hashes[path]
	if seen && prev == sum {
		w.mu.Unlock()
		return
	}
	w.hashes[path] = sum
	w.mu.Unlock()

	w.handle(path)
}

func (w *DirWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
