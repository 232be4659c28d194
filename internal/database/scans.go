package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scan records one library scan run
type Scan struct {
	ID           string
	Root         string
	StartedAt    time.Time
	FinishedAt   *time.Time
	FilesSeen    int
	FilesParsed  int
	FilesRemoved int
}

// Duration returns how long the scan ran, zero while it is unfinished.
func (s *Scan) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// StartScan creates a scan row with a fresh id.
func (d *DB) StartScan(root string) (*Scan, error) {
	scan := &Scan{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`INSERT INTO scans (id, root, started_at) VALUES (?, ?, ?)`,
		scan.ID, scan.Root, formatTime(scan.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to start scan: %w", err)
	}
	return scan, nil
}

// FinishScan stores the counters of a finished scan.
func (d *DB) FinishScan(id string, seen, parsed, removed int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.Exec(`
		UPDATE scans
		SET finished_at = ?, files_seen = ?, files_parsed = ?, files_removed = ?
		WHERE id = ?`,
		formatTime(time.Now()), seen, parsed, removed, id)
	if err != nil {
		return fmt.Errorf("failed to finish scan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scan %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetScan returns one scan or ErrNotFound.
func (d *DB) GetScan(id string) (*Scan, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRow(`
		SELECT id, root, started_at, finished_at, files_seen, files_parsed, files_removed
		FROM scans WHERE id = ?`, id)
	scan, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan %s: %w", id, ErrNotFound)
	}
	return scan, err
}

// ListScans returns the most recent scans first.
func (d *DB) ListScans(limit int) ([]*Scan, error) {
	if limit <= 0 {
		limit = 20
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, root, started_at, finished_at, files_seen, files_parsed, files_removed
		FROM scans ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

func scanScan(row rowScanner) (*Scan, error) {
	var (
		scan       Scan
		startedAt  string
		finishedAt sql.NullString
	)

	err := row.Scan(&scan.ID, &scan.Root, &startedAt, &finishedAt,
		&scan.FilesSeen, &scan.FilesParsed, &scan.FilesRemoved)
	if err != nil {
		return nil, err
	}

	if scan.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		scan.FinishedAt = &t
	}

	return &scan, nil
}
