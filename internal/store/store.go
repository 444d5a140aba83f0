// Package store implements the durable translation table: a single
// SQLite file, opened in WAL journal mode so the watcher's mtime
// probes and the startup integrity check never block the serializer,
// the table's sole writer.
package store

import (
	"database/sql"
	"os"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Translation is one row of the durable table.
type Translation struct {
	Original   string
	Translated string
}

// Store wraps the single open connection to the translations table.
// Only the serializer goroutine is expected to call the mutating
// methods; List and ModTime are safe to call from any goroutine since
// SQLite's WAL mode lets readers proceed without blocking the writer.
type Store struct {
	path string
	db   *sql.DB
}

// Open connects to (and if necessary creates) the store file at path,
// enables WAL journaling, and ensures the translations table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store %q", path)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL journaling")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS translations (
		original TEXT PRIMARY KEY,
		translated TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create translations table")
	}

	return &Store{path: path, db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts or replaces the row for original.
func (s *Store) Upsert(original, translated string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO translations (original, translated) VALUES (?, ?)`, original, translated)
	if err != nil {
		return errors.Wrapf(err, "failed to upsert translation %q", original)
	}
	return nil
}

// Delete removes the row for original, if any. Deleting an unknown
// original is not an error.
func (s *Store) Delete(original string) error {
	_, err := s.db.Exec(`DELETE FROM translations WHERE original = ?`, original)
	if err != nil {
		return errors.Wrapf(err, "failed to delete translation %q", original)
	}
	return nil
}

// DeleteAll removes every row.
func (s *Store) DeleteAll() error {
	if _, err := s.db.Exec(`DELETE FROM translations`); err != nil {
		return errors.Wrap(err, "failed to purge translations")
	}
	return nil
}

// List returns every row, ordered by original for determinism.
func (s *Store) List() ([]Translation, error) {
	rows, err := s.db.Query(`SELECT original, translated FROM translations ORDER BY original`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list translations")
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.Original, &t.Translated); err != nil {
			return nil, errors.Wrap(err, "failed to scan translation row")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ModTime returns the backing file's modification time, used by the
// watcher to detect edits made outside this process.
func (s *Store) ModTime() (time.Time, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// CheckIntegrity opens its own short-lived connection to path (distinct
// from any connection the serializer holds) and runs PRAGMA
// integrity_check. A missing file is not a corruption: it reports ok
// so that callers create an empty store instead of refusing to start.
func CheckIntegrity(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to open store %q for integrity check", path)
	}
	defer db.Close()

	row := db.QueryRow(`PRAGMA integrity_check`)
	var result string
	if err := row.Scan(&result); err != nil {
		return false, errors.Wrap(err, "failed to run integrity check")
	}
	return result == "ok", nil
}
