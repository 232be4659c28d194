package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/watcher"
)

// WatchHandler keeps the database current from watcher events. It
// implements watcher.Handler.
type WatchHandler struct {
	scanner *Scanner
	roots   []string

	mu    sync.Mutex
	stats HandlerStats
}

// HandlerStats counts what a WatchHandler has done since it was created.
type HandlerStats struct {
	Parsed    int64     `json:"parsed"`
	Removed   int64     `json:"removed"`
	Errors    int64     `json:"errors"`
	LastEvent time.Time `json:"last_event,omitempty"`
}

// NewWatchHandler creates a handler for files below roots. Paths are made
// absolute so events can be mapped back to their root.
func NewWatchHandler(s *Scanner, roots []string) *WatchHandler {
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		if a, err := filepath.Abs(r); err == nil {
			abs = append(abs, filepath.Clean(a))
		}
	}
	// Longest first so nested roots win.
	sort.Slice(abs, func(i, j int) bool { return len(abs[i]) > len(abs[j]) })
	return &WatchHandler{scanner: s, roots: abs}
}

func (h *WatchHandler) IsMediaFile(path string) bool {
	return h.scanner.Accepts(path)
}

// RootFor returns the watched root containing path.
func (h *WatchHandler) RootFor(path string) (string, bool) {
	for _, root := range h.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

// Stats returns a snapshot of the handler counters.
func (h *WatchHandler) Stats() HandlerStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *WatchHandler) record(parsed, removed int64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Parsed += parsed
	h.stats.Removed += removed
	if err != nil {
		h.stats.Errors++
	}
	h.stats.LastEvent = time.Now()
}

func (h *WatchHandler) HandleFileEvent(event watcher.FileEvent) error {
	root, ok := h.RootFor(event.Path)
	if !ok {
		root = filepath.Dir(event.Path)
	}

	switch event.Type {
	case watcher.EventCreate, watcher.EventWrite:
		return h.upsert(root, event.Path)

	case watcher.EventMove:
		// fsnotify reports the old name; the new one arrives as a create.
		if _, err := os.Stat(event.Path); err == nil {
			return h.upsert(root, event.Path)
		}
		return h.remove(event.Path)

	case watcher.EventDelete:
		return h.remove(event.Path)
	}
	return nil
}

func (h *WatchHandler) upsert(root, path string) error {
	file, err := h.scanner.ParseFile(root, path)
	if err != nil {
		h.record(0, 0, err)
		return err
	}
	h.record(1, 0, nil)
	h.scanner.logger.Info("scanner", "Parsed new file",
		logging.F("path", path),
		logging.F("rule", file.Rule))
	return nil
}

func (h *WatchHandler) remove(path string) error {
	if err := h.scanner.Remove(path); err != nil {
		h.record(0, 0, err)
		return err
	}
	h.record(0, 1, nil)
	h.scanner.logger.Info("scanner", "Removed file", logging.F("path", path))
	return nil
}
