// Package logging provides leveled, component-tagged logging to stderr with
// an optional rotating log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level is a log severity. Entries below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a string to a Level. Unknown names map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log line
type Field struct {
	Key   string
	Value interface{}
}

// F creates a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      string `mapstructure:"level" toml:"level"`             // debug, info, warn, error
	File       string `mapstructure:"file" toml:"file"`               // log file path, empty for stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb"` // rotate when the file reaches this size
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // numbered backups kept after rotation
}

// DefaultConfig returns default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
	}
}

// Logger writes one line per entry to its console writer and, when
// configured, to a log file that is rotated by size.
type Logger struct {
	mu         sync.Mutex
	level      Level
	console    io.Writer
	file       *os.File
	filePath   string
	maxSize    int64
	maxBackups int
	now        func() time.Time
}

// New creates a Logger that writes to stderr and to cfg.File if set.
func New(cfg Config) (*Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit console writer. A nil writer
// disables console output.
func NewWithWriter(cfg Config, console io.Writer) (*Logger, error) {
	l := &Logger{
		level:      ParseLevel(cfg.Level),
		console:    console,
		maxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		now:        time.Now,
	}
	if l.maxSize <= 0 {
		l.maxSize = 10 * 1024 * 1024
	}
	if l.maxBackups <= 0 {
		l.maxBackups = 5
	}

	if cfg.File == "" {
		return l, nil
	}

	path, err := expandHome(cfg.File)
	if err != nil {
		return nil, err
	}
	l.filePath = path

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	if err := l.openFile(); err != nil {
		return nil, err
	}

	return l, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home dir: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func (l *Logger) openFile() error {
	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	l.file = f
	return nil
}

// rotateIfNeeded must be called with mu held.
func (l *Logger) rotateIfNeeded() error {
	if l.file == nil {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxSize {
		return nil
	}

	l.file.Close()
	l.file = nil
	if err := rotateFiles(l.filePath, l.maxBackups); err != nil {
		return err
	}
	return l.openFile()
}

// format renders one entry. Values containing spaces or separators are
// quoted so paths stay readable.
func (l *Logger) format(level Level, component, msg string, err error, fields []Field) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s] [%s] %s", l.now().Format(time.RFC3339), level, component, msg)
	if err != nil {
		writeField(&sb, "error", err.Error())
	}
	for _, f := range fields {
		writeField(&sb, f.Key, fmt.Sprint(f.Value))
	}
	sb.WriteByte('\n')

	return []byte(sb.String())
}

func writeField(sb *strings.Builder, key, value string) {
	sb.WriteString(" | ")
	sb.WriteString(key)
	sb.WriteByte('=')
	if value == "" || strings.ContainsAny(value, " |\"\n\t") {
		sb.WriteString(strconv.Quote(value))
		return
	}
	sb.WriteString(value)
}

func (l *Logger) log(level Level, component, msg string, err error, fields ...Field) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	if rotErr := l.rotateIfNeeded(); rotErr != nil && l.console != nil {
		fmt.Fprintf(l.console, "log rotation error: %v\n", rotErr)
	}

	line := l.format(level, component, msg, err, fields)
	if l.console != nil {
		l.console.Write(line)
	}
	if l.file != nil {
		l.file.Write(line)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(component, msg string, fields ...Field) {
	l.log(LevelDebug, component, msg, nil, fields...)
}

// Info logs an info message
func (l *Logger) Info(component, msg string, fields ...Field) {
	l.log(LevelInfo, component, msg, nil, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, msg string, fields ...Field) {
	l.log(LevelWarn, component, msg, nil, fields...)
}

// Error logs an error message with an error
func (l *Logger) Error(component, msg string, err error, fields ...Field) {
	l.log(LevelError, component, msg, err, fields...)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// FilePath returns the log file path, empty when logging to stderr only.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{level: levelOff, now: time.Now}
}
