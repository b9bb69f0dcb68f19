package model

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// WatchEvent signals that the set of GGUF files under the models dir changed.
type WatchEvent struct {
	Path string
	Op   string // "create", "remove", "rename"
}

// Watcher reports catalog changes in a models directory. Write events are
// dropped: an in-flight download emits thousands of them and none change
// which models exist.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan WatchEvent
	done   chan struct{}
	once   sync.Once
}

// WatchDir watches dir and its subdirectories for GGUF files appearing or
// disappearing.
func WatchDir(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		events: make(chan WatchEvent, 64),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Events delivers catalog changes. The channel closes when the watcher does.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.fsw.Add(ev.Name)
					continue
				}
			}
			op := catalogOp(ev.Op)
			if op == "" || !strings.EqualFold(filepath.Ext(ev.Name), ".gguf") {
				continue
			}
			select {
			case w.events <- WatchEvent{Path: ev.Name, Op: op}:
			case <-w.done:
				return
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func catalogOp(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
