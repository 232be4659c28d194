package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/naming"
)

// Scanner walks library directories, parses every media file name and keeps
// the parse history database in sync with what is on disk.
type Scanner struct {
	db     *database.DB
	parser *naming.Parser
	logger *logging.Logger
	opts   Options
	exts   map[string]bool
}

// New creates a Scanner. A nil parser uses naming.New() and a nil logger
// discards output.
func New(db *database.DB, parser *naming.Parser, logger *logging.Logger, opts Options) *Scanner {
	if parser == nil {
		parser = naming.New()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	return &Scanner{
		db:     db,
		parser: parser,
		logger: logger,
		opts:   opts,
		exts:   exts,
	}
}

// DB returns the database results are stored in.
func (s *Scanner) DB() *database.DB {
	return s.db
}

// Accepts reports whether path has a configured extension and, with
// SkipHidden, is not a dot file.
func (s *Scanner) Accepts(path string) bool {
	base := filepath.Base(path)
	if s.opts.SkipHidden && strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	return ext != "" && s.exts[ext]
}

// Scan scans each root in turn. Roots must be existing directories; they
// are all checked before any scanning starts. Per-file failures are
// collected in Result.Errors. Cancelling ctx stops the walk and returns the
// partial result with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, roots ...string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := checkRoot(root)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, abs)
	}
	result.Roots = cleaned

	for i, root := range cleaned {
		s.report(Progress{FilesSeen: result.FilesSeen, CurrentPath: root, RootsDone: i, RootsTotal: len(cleaned)})

		if err := s.scanRoot(ctx, root, result); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	s.report(Progress{FilesSeen: result.FilesSeen, RootsDone: len(cleaned), RootsTotal: len(cleaned)})
	result.Duration = time.Since(start)
	return result, nil
}

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan root %s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}

func (s *Scanner) report(p Progress) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(p)
	}
}

// covers reports whether a walk of root under the current options would
// visit path. Records outside that reach are left alone by the prune.
func (s *Scanner) covers(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	if !s.Accepts(path) {
		return false
	}

	dir := filepath.Dir(rel)
	if dir == "." {
		return true
	}
	if !s.opts.Recursive {
		return false
	}
	if s.opts.SkipHidden {
		for _, part := range strings.Split(dir, string(filepath.Separator)) {
			if strings.HasPrefix(part, ".") {
				return false
			}
		}
	}
	return true
}

func (s *Scanner) scanRoot(ctx context.Context, root string, result *Result) error {
	scan, err := s.db.StartScan(root)
	if err != nil {
		return err
	}
	result.ScanIDs = append(result.ScanIDs, scan.ID)

	s.logger.Info("scanner", "Scan starting", logging.F("root", root), logging.F("scan_id", scan.ID))

	seen, parsed := 0, 0
	keep := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("walk error %s: %w", path, err))
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !s.opts.Recursive || (s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.Accepts(path) {
			return nil
		}

		seen++
		result.FilesSeen++
		keep[path] = true

		if result.FilesSeen%progressReportInterval == 0 {
			s.report(Progress{FilesSeen: result.FilesSeen, CurrentPath: path, RootsDone: len(result.ScanIDs) - 1, RootsTotal: len(result.Roots)})
		}

		file, err := s.store(root, path, scan.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("process file %s: %w", path, err))
			return nil
		}
		if file.DidParse {
			parsed++
			result.FilesParsed++
		} else {
			result.FilesUnparsed++
		}
		return nil
	})
	if walkErr != nil {
		s.logger.Warn("scanner", "Scan interrupted", logging.F("root", root), logging.F("error", walkErr.Error()))
		return walkErr
	}

	removed, err := s.db.DeleteMissingUnder(root, database.PruneFilter{
		ParsedBefore: scan.StartedAt,
		Keep: func(path string) bool {
			return keep[path] || !s.covers(root, path)
		},
	})
	if err != nil {
		return err
	}
	result.FilesRemoved += removed

	if err := s.db.FinishScan(scan.ID, seen, parsed, removed); err != nil {
		return err
	}

	s.logger.Info("scanner", "Scan complete",
		logging.F("root", root),
		logging.F("seen", seen),
		logging.F("parsed", parsed),
		logging.F("removed", removed))

	return nil
}

// RelativeName returns the name that is parsed for path: the path relative
// to root with forward slashes, in Unicode NFC. Directory names below the
// root are kept because they often carry the series name.
func RelativeName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return norm.NFC.String(filepath.ToSlash(rel))
}

func (s *Scanner) store(root, path, scanID string) (*database.ParsedFile, error) {
	res := s.parser.Explain(RelativeName(root, path))
	md := res.Metadata

	file := &database.ParsedFile{
		Path:      path,
		Dir:       md[naming.FieldDir],
		Extension: md[naming.FieldExtension],
		Rule:      res.Rule,
		DidParse:  md.Parsed(),
		Fields:    md.Strings(),
		ScanID:    scanID,
	}
	if err := s.db.UpsertParsedFile(file); err != nil {
		return nil, err
	}

	s.logger.Debug("scanner", "Parsed file",
		logging.F("path", path),
		logging.F("rule", res.Rule))

	return file, nil
}

// ParseFile parses and stores a single file found below root, as the
// watcher does for new files.
func (s *Scanner) ParseFile(root, path string) (*database.ParsedFile, error) {
	if !s.Accepts(path) {
		return nil, fmt.Errorf("%s: unsupported file", path)
	}
	return s.store(root, path, "")
}

// Remove deletes the stored record of path. Missing records are ignored.
func (s *Scanner) Remove(path string) error {
	err := s.db.DeleteParsedFile(path)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}
