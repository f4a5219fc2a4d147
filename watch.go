package vkframe

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// ShaderWatcher reports changes to shader files on disk. Directories are
// watched rather than files, so editors that replace files on save are
// still noticed.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	changed chan string
	dirty   atomic.Bool
	wg      sync.WaitGroup
}

func NewShaderWatcher(paths ...string) (*ShaderWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create shader watcher")
	}
	w := &ShaderWatcher{
		watcher: fw,
		files:   make(map[string]bool, len(paths)),
		changed: make(chan string, 8),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errors.Wrap(err, "resolve shader path")
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
		dirs[dir] = true
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *ShaderWatcher) run() {
	defer w.wg.Done()
	defer close(w.changed)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			Logger().Debug("vkframe: shader changed", "path", name, "op", event.Op.String())
			w.dirty.Store(true)
			select {
			case w.changed <- name:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			Logger().Warn("vkframe: shader watcher error", "err", err)
		}
	}
}

// Changed delivers the path of each changed shader. Events are dropped
// while the channel is full; Dirty still reports them.
func (w *ShaderWatcher) Changed() <-chan string {
	return w.changed
}

// Dirty reports whether a shader changed since the last call.
func (w *ShaderWatcher) Dirty() bool {
	return w.dirty.Swap(false)
}

func (w *ShaderWatcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
