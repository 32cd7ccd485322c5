// Package notify informs a live UI of changes to materialized import
// content by watching the project's imports directory.
package notify

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/knowns/knowns/internal/logging"
	"github.com/knowns/knowns/internal/paths"
)

// EventKind classifies a change to materialized content.
type EventKind string

const (
	EventWritten EventKind = "written"
	EventRemoved EventKind = "removed"
)

// Event is one observed change. Import is the top-level import name the
// path belongs to, when it can be determined.
type Event struct {
	Kind   EventKind `json:"kind"`
	Import string    `json:"import"`
	Path   string    `json:"path"`
}

// Watcher emits events for changes under .knowns/imports.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan Event
}

// NewWatcher starts watching the project's imports directory, including
// subdirectories created later.
func NewWatcher(projectRoot string) (*Watcher, error) {
	root := paths.ImportsDir(projectRoot)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create imports directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{root: root, watcher: fsw, events: make(chan Event, 64)}
	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events is the channel the watcher delivers on. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run pumps filesystem notifications into typed events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch error", logging.Err(err))
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// New directories need their own watch to keep coverage recursive.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				logging.Warn("failed to watch new directory", logging.Path(ev.Name), logging.Err(err))
			}
		}
	}

	var kind EventKind
	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		kind = EventRemoved
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		kind = EventWritten
	default:
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	importName := rel
	if j := strings.IndexByte(importName, '/'); j >= 0 {
		importName = importName[:j]
	}

	select {
	case w.events <- Event{Kind: kind, Import: importName, Path: rel}:
	default:
		// Drop rather than block the notification loop.
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}
