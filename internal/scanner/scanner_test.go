package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/naming"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
}

func defaultOptions() Options {
	return Options{
		Extensions: []string{"mkv", ".AVI"},
		Recursive:  true,
		SkipHidden: true,
	}
}

func TestAccepts(t *testing.T) {
	s := New(nil, nil, nil, defaultOptions())

	tests := []struct {
		path string
		want bool
	}{
		{"/lib/movie.mkv", true},
		{"/lib/movie.MKV", true},
		{"/lib/show.avi", true},
		{"/lib/notes.txt", false},
		{"/lib/noext", false},
		{"/lib/.hidden.mkv", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Accepts(tt.path))
		})
	}
}

func TestRelativeName(t *testing.T) {
	assert.Equal(t, "Series Name/D01E02.Episode_name.avi",
		RelativeName("/lib", "/lib/Series Name/D01E02.Episode_name.avi"))
	assert.Equal(t, "movie.mkv", RelativeName("/lib", "/elsewhere/movie.mkv"))

	decomposed := norm.NFD.String("Amélie (2001).mkv")
	assert.Equal(t, norm.NFC.String("Amélie (2001).mkv"), RelativeName("/lib", "/lib/"+decomposed))
}

func TestScan_ParsesAndStores(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root,
		"Series Name/D01E02.Episode_name.avi",
		"Movie Name (1988).mkv",
		"Just A Movie.mkv",
		"notes.txt",
		".hidden/Secret.1x01.mkv",
		".Skipped.mkv",
	)

	var progress []Progress
	opts := defaultOptions()
	opts.OnProgress = func(p Progress) { progress = append(progress, p) }

	result, err := New(db, nil, nil, opts).Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, result.FilesSeen)
	assert.Equal(t, 3, result.FilesParsed)
	assert.Zero(t, result.FilesRemoved)
	assert.Empty(t, result.Errors)
	require.Len(t, result.ScanIDs, 1)

	episode, err := db.GetParsedFile(filepath.Join(root, "Series Name", "D01E02.Episode_name.avi"))
	require.NoError(t, err)
	assert.Equal(t, "dvd-episode", episode.Rule)
	assert.Equal(t, "Series Name", episode.Field("name"))
	assert.Equal(t, "Series Name", episode.Dir)
	assert.Equal(t, "01", episode.Field("dvd"))
	assert.Equal(t, result.ScanIDs[0], episode.ScanID)

	movie, err := db.GetParsedFile(filepath.Join(root, "Movie Name (1988).mkv"))
	require.NoError(t, err)
	assert.Equal(t, "1988", movie.Field("year"))

	_, err = db.GetParsedFile(filepath.Join(root, ".hidden", "Secret.1x01.mkv"))
	assert.True(t, errors.Is(err, database.ErrNotFound))

	scan, err := db.GetScan(result.ScanIDs[0])
	require.NoError(t, err)
	assert.NotNil(t, scan.FinishedAt)
	assert.Equal(t, 3, scan.FilesSeen)

	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Equal(t, 1, last.RootsDone)
	assert.Equal(t, 1, last.RootsTotal)
	assert.Equal(t, 3, last.FilesSeen)
}

func TestScan_NonRecursive(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "top.mkv", "sub/nested.mkv")

	opts := defaultOptions()
	opts.Recursive = false

	result, err := New(db, nil, nil, opts).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesSeen)
}

func TestScan_RemovesVanishedFiles(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "a.mkv", "b.mkv")

	s := New(db, nil, nil, defaultOptions())
	_, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.mkv")))

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesSeen)
	assert.Equal(t, 1, result.FilesRemoved)

	n, err := db.CountParsedFiles()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScan_KeepsRecordsOutsideWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "top.mkv", "gone.mkv", "sub/nested.mkv", ".hidden/secret.mkv")

	tests := []struct {
		name string
		opts func(*Options)
		kept []string
	}{
		{
			name: "non-recursive",
			opts: func(o *Options) { o.Recursive = false },
			kept: []string{"top.mkv", "sub/nested.mkv", ".hidden/secret.mkv"},
		},
		{
			name: "hidden directories skipped",
			opts: func(o *Options) {},
			kept: []string{"top.mkv", "sub/nested.mkv", ".hidden/secret.mkv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)

			everything := defaultOptions()
			everything.SkipHidden = false
			_, err := New(db, nil, nil, everything).Scan(context.Background(), root)
			require.NoError(t, err)
			n, err := db.CountParsedFiles()
			require.NoError(t, err)
			require.Equal(t, 4, n)

			// Only gone.mkv disappears from disk between the two scans.
			gone := filepath.Join(root, "gone.mkv")
			require.NoError(t, os.Remove(gone))
			t.Cleanup(func() { touch(t, root, "gone.mkv") })

			opts := defaultOptions()
			tt.opts(&opts)
			result, err := New(db, nil, nil, opts).Scan(context.Background(), root)
			require.NoError(t, err)
			assert.Equal(t, 1, result.FilesRemoved)

			for _, name := range tt.kept {
				_, err := db.GetParsedFile(filepath.Join(root, filepath.FromSlash(name)))
				assert.NoError(t, err, name)
			}
			_, err = db.GetParsedFile(gone)
			assert.True(t, errors.Is(err, database.ErrNotFound))
		})
	}
}

func TestScan_KeepsFilesStoredDuringWalk(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	for i := 0; i < 12; i++ {
		touch(t, root, fmt.Sprintf("Show.1x%02d.mkv", i+1))
	}
	late := filepath.Join(root, "Arrived Late (2001).mkv")

	var s *Scanner
	opts := defaultOptions()
	opts.OnProgress = func(p Progress) {
		// Mid-walk, the watcher stores a file the walk has already passed.
		if p.FilesSeen == 10 && p.CurrentPath != root && p.RootsDone == 0 {
			touch(t, root, filepath.Base(late))
			_, err := s.ParseFile(root, late)
			require.NoError(t, err)
		}
	}
	s = New(db, nil, nil, opts)

	result, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 12, result.FilesSeen)
	assert.Zero(t, result.FilesRemoved)

	file, err := db.GetParsedFile(late)
	require.NoError(t, err)
	assert.Equal(t, "2001", file.Field("year"))
}

func TestCovers(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "lib")
	flat := defaultOptions()
	flat.Recursive = false

	tests := []struct {
		name string
		opts Options
		path string
		want bool
	}{
		{"top level", defaultOptions(), "a.mkv", true},
		{"nested", defaultOptions(), "sub/b.mkv", true},
		{"nested when flat", flat, "sub/b.mkv", false},
		{"hidden directory", defaultOptions(), ".cache/c.mkv", false},
		{"hidden parent", defaultOptions(), "sub/.trash/d/e.mkv", false},
		{"unsupported extension", defaultOptions(), "notes.txt", false},
		{"outside root", defaultOptions(), "../library/f.mkv", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, nil, nil, tt.opts)
			assert.Equal(t, tt.want, s.covers(root, filepath.Join(root, filepath.FromSlash(tt.path))))
		})
	}
}

func TestScan_RomanParser(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "Series Name.disc_V.Episode_XI.Episode_name.avi")

	s := New(db, naming.New(naming.WithRomanNumerals(true)), nil, defaultOptions())
	_, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	file, err := db.GetParsedFile(filepath.Join(root, "Series Name.disc_V.Episode_XI.Episode_name.avi"))
	require.NoError(t, err)
	assert.Equal(t, "5", file.Field("dvd"))
	assert.Equal(t, "11", file.Field("episode"))
}

func TestScan_InvalidRoots(t *testing.T) {
	db := setupTestDB(t)
	s := New(db, nil, nil, defaultOptions())

	file := filepath.Join(t.TempDir(), "file.mkv")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := s.Scan(context.Background(), file)
	assert.True(t, errors.Is(err, ErrNotDirectory))

	_, err = s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	scans, err := db.ListScans(10)
	require.NoError(t, err)
	assert.Empty(t, scans, "no scan starts when a root is invalid")
}

func TestScan_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "a.mkv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(db, nil, nil, defaultOptions()).Scan(ctx, root)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Zero(t, result.FilesSeen)
}

func TestParseFileAndRemove(t *testing.T) {
	db := setupTestDB(t)
	root := t.TempDir()
	touch(t, root, "Show.1x02.Pilot.mkv")
	path := filepath.Join(root, "Show.1x02.Pilot.mkv")

	s := New(db, nil, nil, defaultOptions())

	file, err := s.ParseFile(root, path)
	require.NoError(t, err)
	assert.Equal(t, "season-x-episode", file.Rule)
	assert.Equal(t, "Show", file.Field("name"))
	assert.Equal(t, "Pilot", file.Field("episodename"))

	_, err = s.ParseFile(root, filepath.Join(root, "notes.txt"))
	assert.Error(t, err)

	require.NoError(t, s.Remove(path))
	require.NoError(t, s.Remove(path), "removing twice is not an error")

	_, err = db.GetParsedFile(path)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}
