// Package autosave keeps versioned copies of a document's segments in a
// local SQLite database so an editing session can be recovered.
package autosave

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mgpai22/cueline/internal/timeline"
)

// DefaultKeep is how many versions per document survive pruning.
const DefaultKeep = 50

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	document TEXT    NOT NULL,
	version  INTEGER NOT NULL,
	saved_at INTEGER NOT NULL,
	payload  TEXT    NOT NULL,
	PRIMARY KEY (document, version)
);`

// one saved copy of a document
type Snapshot struct {
	Document string
	Version  int
	SavedAt  time.Time
	Segments []timeline.Segment
}

// metadata of a saved copy, without its payload
type Version struct {
	Version  int
	SavedAt  time.Time
	Segments int
}

type Store struct {
	db   *sql.DB
	keep int
}

// Open opens or creates the database at path. keep <= 0 uses DefaultKeep.
func Open(path string, keep int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create autosave directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps :memory: databases alive between calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Store{db: db, keep: keep}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends a new version of document and prunes old ones. It returns
// the version number written.
func (s *Store) Save(document string, segs []timeline.Segment) (int, error) {
	if segs == nil {
		segs = []timeline.Segment{}
	}
	payload, err := json.Marshal(segs)
	if err != nil {
		return 0, fmt.Errorf("encode segments: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE document = ?`,
		document,
	).Scan(&version); err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO snapshots (document, version, saved_at, payload) VALUES (?, ?, ?, ?)`,
		document, version, time.Now().UnixMilli(), string(payload),
	); err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM snapshots WHERE document = ? AND version <= ?`,
		document, version-s.keep,
	); err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}

// Latest returns the newest snapshot of document, or nil when none exists.
func (s *Store) Latest(document string) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT version, saved_at, payload
		FROM snapshots
		WHERE document = ?
		ORDER BY version DESC
		LIMIT 1
	`, document)
	return scanSnapshot(document, row)
}

// Load returns one specific version, or nil when it does not exist.
func (s *Store) Load(document string, version int) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT version, saved_at, payload
		FROM snapshots
		WHERE document = ? AND version = ?
	`, document, version)
	return scanSnapshot(document, row)
}

func scanSnapshot(document string, row *sql.Row) (*Snapshot, error) {
	var (
		snap    = Snapshot{Document: document}
		savedAt int64
		payload string
	)
	if err := row.Scan(&snap.Version, &savedAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &snap.Segments); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", snap.Version, err)
	}
	snap.SavedAt = time.UnixMilli(savedAt)
	return &snap, nil
}

// Versions lists the saved versions of document, newest first.
func (s *Store) Versions(document string) ([]Version, error) {
	rows, err := s.db.Query(`
		SELECT version, saved_at, json_array_length(payload)
		FROM snapshots
		WHERE document = ?
		ORDER BY version DESC
	`, document)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []Version
	for rows.Next() {
		var v Version
		var savedAt int64
		if err := rows.Scan(&v.Version, &savedAt, &v.Segments); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.SavedAt = time.UnixMilli(savedAt)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// DocumentKey derives the key a file is saved under: its absolute path.
func DocumentKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
