package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/watcher"
)

func TestWatchHandler_RootFor(t *testing.T) {
	base := t.TempDir()
	outer := filepath.Join(base, "tv")
	inner := filepath.Join(base, "tv", "anime")
	h := NewWatchHandler(New(nil, nil, nil, defaultOptions()), []string{outer, inner})

	root, ok := h.RootFor(filepath.Join(inner, "Show.1x02.mkv"))
	require.True(t, ok)
	assert.Equal(t, inner, root)

	root, ok = h.RootFor(filepath.Join(outer, "Other", "Other.1x02.mkv"))
	require.True(t, ok)
	assert.Equal(t, outer, root)

	_, ok = h.RootFor(filepath.Join(base, "tvshows", "x.mkv"))
	assert.False(t, ok)
}

func TestWatchHandler_Events(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "Show/Show.1x02.Pilot.mkv")
	path := filepath.Join(root, "Show", "Show.1x02.Pilot.mkv")

	h := NewWatchHandler(New(db, nil, nil, defaultOptions()), []string{root})
	assert.True(t, h.IsMediaFile(path))
	assert.False(t, h.IsMediaFile(filepath.Join(root, "notes.txt")))

	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: path}))
	file, err := db.GetParsedFile(path)
	require.NoError(t, err)
	assert.Equal(t, "season-x-episode", file.Rule)
	assert.Equal(t, "Show", file.Dir)

	// A move away from the path removes the record.
	moved := filepath.Join(root, "Show.1x03.mkv")
	require.NoError(t, os.Rename(path, moved))
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventMove, Path: path}))
	_, err = db.GetParsedFile(path)
	assert.True(t, errors.Is(err, database.ErrNotFound))

	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: moved}))
	require.NoError(t, os.Remove(moved))
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventDelete, Path: moved}))
	_, err = db.GetParsedFile(moved)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestWatchHandler_Stats(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "Movie Name (1988).mkv")
	path := filepath.Join(root, "Movie Name (1988).mkv")

	h := NewWatchHandler(New(db, nil, nil, defaultOptions()), []string{root})
	assert.True(t, h.Stats().LastEvent.IsZero())

	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventWrite, Path: path}))
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventDelete, Path: path}))
	assert.Error(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventCreate, Path: filepath.Join(root, "notes.txt")}))

	stats := h.Stats()
	assert.Equal(t, int64(1), stats.Parsed)
	assert.Equal(t, int64(1), stats.Removed)
	assert.Equal(t, int64(1), stats.Errors)
	assert.False(t, stats.LastEvent.IsZero())
}
