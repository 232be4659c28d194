package database

import (
	"database/sql"
	"fmt"
)

// Schema version for migrations
const currentSchemaVersion = 2

type migration struct {
	version int
	up      []string
}

// SQL migration scripts. Each migration records its own version.
var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			`CREATE TABLE parsed_files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				path TEXT NOT NULL UNIQUE,
				dir TEXT NOT NULL DEFAULT '',
				extension TEXT NOT NULL DEFAULT '',

				-- Winning rule, empty when nothing matched
				rule TEXT NOT NULL DEFAULT '',
				did_parse INTEGER NOT NULL DEFAULT 0,

				-- Full metadata as a JSON object
				fields TEXT NOT NULL DEFAULT '{}',

				-- Denormalised copies for filtering
				name TEXT NOT NULL DEFAULT '',
				season TEXT NOT NULL DEFAULT '',
				episode TEXT NOT NULL DEFAULT '',
				movie TEXT NOT NULL DEFAULT '',
				year TEXT NOT NULL DEFAULT '',

				scan_id TEXT NOT NULL DEFAULT '',
				parsed_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_parsed_files_name ON parsed_files(name)`,
			`CREATE INDEX idx_parsed_files_movie ON parsed_files(movie)`,
			`CREATE INDEX idx_parsed_files_rule ON parsed_files(rule)`,

			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
	{
		version: 2,
		up: []string{
			`CREATE TABLE scans (
				id TEXT PRIMARY KEY,
				root TEXT NOT NULL,
				started_at TEXT NOT NULL,
				finished_at TEXT,
				files_seen INTEGER NOT NULL DEFAULT 0,
				files_parsed INTEGER NOT NULL DEFAULT 0,
				files_removed INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX idx_scans_started ON scans(started_at)`,
			`CREATE INDEX idx_parsed_files_scan ON parsed_files(scan_id)`,

			`INSERT INTO schema_version (version) VALUES (2)`,
		},
	},
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func applyMigrations(db *sql.DB) error {
	currentVersion, err := schemaVersion(db)
	if err != nil {
		// schema_version doesn't exist yet - this is a fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
