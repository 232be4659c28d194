package api

import (
	"time"

	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/scanner"
)

// MaxBatchSize caps the number of filenames in one POST /parse request.
const MaxBatchSize = 1000

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string          `json:"status"`
	Version string          `json:"version"`
	Rules   int             `json:"rules"`
	Files   *int            `json:"files,omitempty"`
	Scanner *scanner.Status `json:"scanner,omitempty"`
}

// ParseResult is the parse outcome of one filename.
type ParseResult struct {
	Filename string            `json:"filename"`
	Fields   map[string]string `json:"fields"`
	Parsed   bool              `json:"parsed"`
	Kind     string            `json:"kind"`
	Rule     string            `json:"rule,omitempty"`
	Core     string            `json:"core,omitempty"`
}

type ParseRequest struct {
	Filenames []string `json:"filenames"`
	// Roman overrides the server's roman numeral setting when set.
	Roman *bool `json:"roman,omitempty"`
}

type ParseBatchResponse struct {
	Results []ParseResult `json:"results"`
}

type RuleExample struct {
	Input string            `json:"input"`
	Want  map[string]string `json:"want"`
}

type RuleInfo struct {
	Name     string        `json:"name"`
	Pattern  string        `json:"pattern"`
	Fields   []string      `json:"fields"`
	Examples []RuleExample `json:"examples,omitempty"`
}

type RomanResult struct {
	Numeral string `json:"numeral"`
	Value   int    `json:"value"`
}

type FileInfo struct {
	ID        int64             `json:"id"`
	Path      string            `json:"path"`
	Dir       string            `json:"dir,omitempty"`
	Extension string            `json:"extension,omitempty"`
	Rule      string            `json:"rule,omitempty"`
	Parsed    bool              `json:"parsed"`
	Fields    map[string]string `json:"fields"`
	ScanID    string            `json:"scan_id,omitempty"`
	ParsedAt  time.Time         `json:"parsed_at"`
}

type ScanInfo struct {
	ID           string     `json:"id"`
	Root         string     `json:"root"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	FilesSeen    int        `json:"files_seen"`
	FilesParsed  int        `json:"files_parsed"`
	FilesRemoved int        `json:"files_removed"`
	DurationMS   int64      `json:"duration_ms"`
}

// NewParseResult converts a naming.Result for the wire.
func NewParseResult(filename string, res naming.Result) ParseResult {
	return ParseResult{
		Filename: filename,
		Fields:   res.Metadata.Strings(),
		Parsed:   res.Metadata.Parsed(),
		Kind:     res.Metadata.Kind().String(),
		Rule:     res.Rule,
		Core:     res.Core,
	}
}

// NewRuleInfo converts a catalog rule for the wire.
func NewRuleInfo(r naming.Rule) RuleInfo {
	fields := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = string(f)
	}
	examples := make([]RuleExample, len(r.Examples))
	for i, ex := range r.Examples {
		examples[i] = RuleExample{Input: ex.Input, Want: ex.Want.Strings()}
	}
	return RuleInfo{
		Name:     r.Name,
		Pattern:  r.Pattern,
		Fields:   fields,
		Examples: examples,
	}
}

// NewFileInfo converts a stored parse result for the wire.
func NewFileInfo(f *database.ParsedFile) FileInfo {
	fields := f.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return FileInfo{
		ID:        f.ID,
		Path:      f.Path,
		Dir:       f.Dir,
		Extension: f.Extension,
		Rule:      f.Rule,
		Parsed:    f.DidParse,
		Fields:    fields,
		ScanID:    f.ScanID,
		ParsedAt:  f.ParsedAt,
	}
}

// NewScanInfo converts a stored scan run for the wire.
func NewScanInfo(s *database.Scan) ScanInfo {
	return ScanInfo{
		ID:           s.ID,
		Root:         s.Root,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		FilesSeen:    s.FilesSeen,
		FilesParsed:  s.FilesParsed,
		FilesRemoved: s.FilesRemoved,
		DurationMS:   s.Duration().Milliseconds(),
	}
}
