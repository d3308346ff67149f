// Package filewatcher monitors a documents directory and reports
// changed files so watch mode can re-ingest them as they land.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Op describes what happened to a document file.
type Op int

const (
	// Upserted means the file was created or rewritten and should be
	// (re-)ingested.
	Upserted Op = iota

	// Removed means the file was deleted or renamed away and its
	// chunks should be removed from the index.
	Removed
)

// Event is one document change. Key is the path relative to the
// watched root, slash-separated, matching document storage keys.
type Event struct {
	Key string
	Op  Op
}

// Watcher wraps fsnotify with extension filtering and root-relative
// keys.
type Watcher struct {
	watcher    *fsnotify.Watcher
	root       string
	extensions []string
}

// New creates a watcher for the given root directory. With no
// extensions, only .pdf files are reported.
func New(root string, extensions ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf"}
	}
	return &Watcher{
		watcher:    w,
		root:       root,
		extensions: extensions,
	}, nil
}

// Watch starts monitoring the root and emits events until the context
// is cancelled. The channel is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	if err := w.watcher.Add(w.root); err != nil {
		return nil, err
	}

	events := make(chan Event, 100)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.watched(event.Name) {
					continue
				}

				var op Op
				switch {
				case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
					op = Upserted
				case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
					op = Removed
				default:
					continue
				}

				key, err := filepath.Rel(w.root, event.Name)
				if err != nil {
					continue
				}

				select {
				case events <- Event{Key: filepath.ToSlash(key), Op: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("File watcher error: %v", err)
			}
		}
	}()
	return events, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
