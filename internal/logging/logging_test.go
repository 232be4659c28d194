package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}

func TestLogger_WritesToConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "debug"}, &buf)
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Info("scanner", "scan finished", F("files", 12), F("root", "/media"))
	l.Error("api", "request failed", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-01-02T03:04:05Z [INFO] [scanner] scan finished | files=12 | root=/media", lines[0])
	assert.Equal(t, "2024-01-02T03:04:05Z [ERROR] [api] request failed | error=boom", lines[1])
}

func TestLogger_QuotesValues(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "info"}, &buf)
	require.NoError(t, err)

	l.Info("watcher", "Parsed new file",
		F("path", "/media/Movie Name (1988).mkv"),
		F("rule", ""),
		F("dirs", []string{"a", "b"}))

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `| path="/media/Movie Name (1988).mkv"`)
	assert.Contains(t, line, `| rule=""`)
	assert.Contains(t, line, `| dirs="[a b]"`)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
	assert.Equal(t, "UNKNOWN", levelOff.String())
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	l.Debug("x", "hidden")
	l.Info("x", "hidden")
	l.Warn("x", "shown")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("x", "now shown")
	assert.Contains(t, buf.String(), "now shown")
}

func TestLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parsevideo.log")
	l, err := NewWithWriter(Config{Level: "info", File: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, path, l.FilePath())

	l.Info("watcher", "started")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[watcher] started")
}

func TestLogger_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	l, err := NewWithWriter(Config{Level: "info", File: path, MaxBackups: 2}, nil)
	require.NoError(t, err)
	l.maxSize = 64

	for i := 0; i < 20; i++ {
		l.Info("test", "a line that is long enough to trigger rotation")
	}
	require.NoError(t, l.Close())

	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "app.1.log"))
	assert.FileExists(t, filepath.Join(dir, "app.2.log"))
	assert.NoFileExists(t, filepath.Join(dir, "app.3.log"))
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("x", "dropped", errors.New("ignored"))
	assert.NoError(t, l.Close())

	var nilLogger *Logger
	nilLogger.Info("x", "nil loggers are silent")
}
