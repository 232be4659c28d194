// Package watcher turns fsnotify events below a set of roots into FileEvents
// for a Handler.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/Nomadcxx/parsevideo/internal/logging"
)

type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventMove   EventType = "move" // the file left this path
	EventDelete EventType = "delete"
)

type FileEvent struct {
	Type EventType
	Path string
}

// Handler receives events for files it reports as media files.
type Handler interface {
	HandleFileEvent(event FileEvent) error
	IsMediaFile(path string) bool
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	logger    *logging.Logger
	recursive bool
}

type Option func(*Watcher)

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func NewWatcher(handler Handler, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		logger:    logging.Nop(),
		recursive: true,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch adds roots (and, when recursive, their non-hidden subdirectories).
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		if !w.recursive {
			if err := w.add(root); err != nil {
				return err
			}
			continue
		}
		if err := w.addRecursive(root); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) add(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	w.logger.Debug("watcher", "Watching", logging.F("dir", dir))
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("unable to watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("unable to watch %s: not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		return w.add(path)
	})
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fsWatcher.WatchList()
}

// Start dispatches events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watcher", "Watcher started", logging.F("dirs", len(w.fsWatcher.WatchList())))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.recursive && !isHidden(event.Name) {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("watcher", "Cannot watch new directory",
								logging.F("dir", event.Name), logging.F("error", err.Error()))
						}
					}
					continue
				}
			}

			if err := w.handleEvent(event); err != nil {
				w.logger.Error("watcher", "Error handling event", err, logging.F("path", event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warn("watcher", "Watcher error", logging.F("error", err.Error()))
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) error {
	if isHidden(event.Name) || !w.handler.IsMediaFile(event.Name) {
		return nil
	}

	eventType, ok := classify(event.Op)
	if !ok {
		return nil
	}

	w.logger.Debug("watcher", "Event",
		logging.F("type", string(eventType)),
		logging.F("file", filepath.Base(event.Name)))

	return w.handler.HandleFileEvent(FileEvent{Type: eventType, Path: event.Name})
}

// classify maps an fsnotify op to an EventType. Chmod-only events are
// dropped.
func classify(op fsnotify.Op) (EventType, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return EventDelete, true
	case op.Has(fsnotify.Rename):
		return EventMove, true
	case op.Has(fsnotify.Create):
		return EventCreate, true
	case op.Has(fsnotify.Write):
		return EventWrite, true
	default:
		return "", false
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
