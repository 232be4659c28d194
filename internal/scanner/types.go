package scanner

import (
	"errors"
	"time"
)

// ErrNotDirectory is returned when a scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Options configures which files a scan considers
type Options struct {
	// Extensions without the leading dot, matched case-insensitively.
	Extensions []string
	Recursive  bool
	// SkipHidden skips dot files and dot directories below the root.
	SkipHidden bool
	OnProgress ProgressCallback
}

// Result contains statistics from a scan operation
type Result struct {
	Roots         []string
	ScanIDs       []string
	FilesSeen     int
	FilesParsed   int // a rule matched
	FilesUnparsed int // stored without a match
	FilesRemoved  int // in the database but no longer on disk
	Duration      time.Duration
	Errors        []error
}

// Progress reports progress during scanning
type Progress struct {
	FilesSeen   int
	CurrentPath string
	RootsDone   int
	RootsTotal  int
}

// ProgressCallback is called periodically during scanning
type ProgressCallback func(Progress)

// progressReportInterval controls how often progress is reported
const progressReportInterval = 10

// Status holds the periodic scanner state for health reporting
type Status struct {
	Healthy      bool      `json:"healthy"`
	LastScan     time.Time `json:"last_scan,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	SkippedTicks int64     `json:"skipped_ticks"`
	Scanning     bool      `json:"scanning"`
}
