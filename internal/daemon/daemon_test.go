package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/parsevideo/internal/client"
	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
)

func newTestScanner(t *testing.T) *scanner.Scanner {
	t.Helper()
	db, err := database.OpenPath(filepath.Join(t.TempDir(), "daemon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return scanner.New(db, nil, nil, scanner.Options{
		Extensions: []string{"mkv"},
		Recursive:  true,
		SkipHidden: true,
	})
}

func TestNew_NothingToRun(t *testing.T) {
	_, err := New(nil, Options{}, nil)
	assert.Error(t, err)
}

func TestNew_RootsNeedScanner(t *testing.T) {
	_, err := New(nil, Options{Roots: []string{t.TempDir()}}, nil)
	assert.Error(t, err)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(newTestScanner(t), Options{Roots: []string{filepath.Join(t.TempDir(), "nope")}}, nil)
	assert.Error(t, err)
}

func TestNew_ServicesFollowOptions(t *testing.T) {
	s := newTestScanner(t)

	d, err := New(s, Options{Addr: "127.0.0.1:0"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, d.Server())
	assert.Nil(t, d.Periodic())

	d, err = New(s, Options{Roots: []string{t.TempDir()}, RescanInterval: time.Hour}, nil)
	require.NoError(t, err)
	assert.Nil(t, d.Server())
	assert.NotNil(t, d.Periodic())
	d.watcher.Close()
}

func TestRun_WatchesAndServes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Show.1x01.Pilot.mkv"), []byte("x"), 0644))

	d, err := New(newTestScanner(t), Options{
		Roots:          []string{root},
		Recursive:      true,
		RescanInterval: time.Hour,
		Addr:           "127.0.0.1:0",
	}, nil)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.RunListener(ctx, l) }()

	c := client.New(l.Addr().String())

	// The initial periodic scan picks up the existing file.
	require.Eventually(t, func() bool {
		files, err := c.Files(ctx, database.ListFilter{Rule: "season-x-episode"})
		return err == nil && len(files) == 1
	}, 5*time.Second, 20*time.Millisecond)

	// The watcher picks up a new one.
	require.NoError(t, os.WriteFile(filepath.Join(root, "Movie Name (1988).mkv"), []byte("x"), 0644))
	require.Eventually(t, func() bool {
		files, err := c.Files(ctx, database.ListFilter{Rule: "year"})
		return err == nil && len(files) == 1
	}, 5*time.Second, 20*time.Millisecond)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	require.NotNil(t, health.Scanner)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestRun_LockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "parsevideod.lock")
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	d, err := New(newTestScanner(t), Options{
		Roots:    []string{t.TempDir()},
		Addr:     "127.0.0.1:0",
		LockPath: lockPath,
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, d.watcher.WatchList())

	err = d.Run(context.Background())
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
	assert.Empty(t, d.watcher.WatchList(), "watches must be released when the lock is held elsewhere")
}
