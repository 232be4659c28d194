package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ParsedFile is the stored parse result of one file
type ParsedFile struct {
	ID        int64
	Path      string
	Dir       string
	Extension string
	Rule      string
	DidParse  bool
	Fields    map[string]string
	ScanID    string
	ParsedAt  time.Time
}

// Field returns one metadata value, empty when absent.
func (f *ParsedFile) Field(name string) string {
	return f.Fields[name]
}

// ListFilter narrows ListParsedFiles. Empty fields match everything; Name
// and Movie are case-insensitive substring matches.
type ListFilter struct {
	Name  string
	Movie string
	Rule  string
	Limit int
}

const parsedFileColumns = `id, path, dir, extension, rule, did_parse, fields, scan_id, parsed_at`

// UpsertParsedFile inserts or replaces the record for file.Path. ParsedAt
// defaults to now.
func (d *DB) UpsertParsedFile(file *ParsedFile) error {
	if file.Path == "" {
		return errors.New("parsed file has no path")
	}
	if file.ParsedAt.IsZero() {
		file.ParsedAt = time.Now()
	}

	fieldsJSON, err := json.Marshal(file.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}
	if file.Fields == nil {
		fieldsJSON = []byte("{}")
	}

	didParse := 0
	if file.DidParse {
		didParse = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	query := `
		INSERT INTO parsed_files (
			path, dir, extension, rule, did_parse, fields,
			name, season, episode, movie, year,
			scan_id, parsed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			dir = excluded.dir,
			extension = excluded.extension,
			rule = excluded.rule,
			did_parse = excluded.did_parse,
			fields = excluded.fields,
			name = excluded.name,
			season = excluded.season,
			episode = excluded.episode,
			movie = excluded.movie,
			year = excluded.year,
			scan_id = excluded.scan_id,
			parsed_at = excluded.parsed_at
		RETURNING id
	`

	err = d.db.QueryRow(query,
		file.Path, file.Dir, file.Extension, file.Rule, didParse, string(fieldsJSON),
		file.Field("name"), file.Field("season"), file.Field("episode"), file.Field("movie"), file.Field("year"),
		file.ScanID, formatTime(file.ParsedAt),
	).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert parsed file: %w", err)
	}

	return nil
}

// GetParsedFile returns the record for path or ErrNotFound.
func (d *DB) GetParsedFile(path string) (*ParsedFile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRow(`SELECT `+parsedFileColumns+` FROM parsed_files WHERE path = ?`, path)
	file, err := scanParsedFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parsed file %q: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ListParsedFiles returns records ordered by path.
func (d *DB) ListParsedFiles(filter ListFilter) ([]*ParsedFile, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Name != "" {
		where = append(where, "name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Name)+"%")
	}
	if filter.Movie != "" {
		where = append(where, "movie LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Movie)+"%")
	}
	if filter.Rule != "" {
		where = append(where, "rule = ?")
		args = append(args, filter.Rule)
	}

	query := `SELECT ` + parsedFileColumns + ` FROM parsed_files`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY path"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parsed files: %w", err)
	}
	defer rows.Close()

	var files []*ParsedFile
	for rows.Next() {
		file, err := scanParsedFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// CountParsedFiles returns the total number of records.
func (d *DB) CountParsedFiles() (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM parsed_files`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteParsedFile removes the record for path. Deleting a missing path
// returns ErrNotFound.
func (d *DB) DeleteParsedFile(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.Exec(`DELETE FROM parsed_files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete parsed file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("parsed file %q: %w", path, ErrNotFound)
	}
	return nil
}

// PruneFilter selects which records under a root DeleteMissingUnder may
// remove.
type PruneFilter struct {
	// ParsedBefore spares records stored at or after it, such as files the
	// watcher added while a scan was walking. Zero spares nothing.
	ParsedBefore time.Time
	// Keep reports paths that must stay. Nil keeps nothing.
	Keep func(path string) bool
}

// DeleteMissingUnder removes records located under root that the filter
// does not spare, returning how many were removed. Paths are compared
// byte-wise, so roots differing only in case are distinct.
func (d *DB) DeleteMissingUnder(root string, filter PruneFilter) (int, error) {
	sep := string(filepath.Separator)
	root = strings.TrimSuffix(root, sep)
	// Every path below root sorts in [root+sep, root+sep+1).
	lower := root + sep
	upper := root + string(filepath.Separator+1)

	query := `SELECT path FROM parsed_files WHERE path >= ? AND path < ?`
	args := []interface{}{lower, upper}
	if !filter.ParsedBefore.IsZero() {
		query += ` AND parsed_at < ?`
		args = append(args, formatTime(filter.ParsedBefore))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to query files under %s: %w", root, err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		if filter.Keep == nil || !filter.Keep(p) {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, p := range stale {
		if _, err := tx.Exec(`DELETE FROM parsed_files WHERE path = ?`, p); err != nil {
			return 0, fmt.Errorf("failed to delete %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanParsedFile(row rowScanner) (*ParsedFile, error) {
	var (
		file       ParsedFile
		didParse   int
		fieldsJSON string
		parsedAt   string
	)

	err := row.Scan(&file.ID, &file.Path, &file.Dir, &file.Extension, &file.Rule,
		&didParse, &fieldsJSON, &file.ScanID, &parsedAt)
	if err != nil {
		return nil, err
	}

	file.DidParse = didParse != 0
	if err := json.Unmarshal([]byte(fieldsJSON), &file.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields of %s: %w", file.Path, err)
	}
	if file.Fields == nil {
		file.Fields = map[string]string{}
	}
	if file.ParsedAt, err = parseTime(parsedAt); err != nil {
		return nil, err
	}

	return &file, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
