package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const createSlotsTable = `CREATE TABLE IF NOT EXISTS slots (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteSlot stores slots as rows of a single table in a local database file.
type SQLiteSlot struct {
	db   *sql.DB
	path string
}

func NewSQLiteSlot(path string) (*SQLiteSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating database directory for %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}
	// a single connection keeps writes ordered
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createSlotsTable); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating slots table")
	}
	return &SQLiteSlot{db: db, path: path}, nil
}

func (s *SQLiteSlot) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "querying slot")
	}
	return value, nil
}

func (s *SQLiteSlot) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO slots (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return errors.Wrap(err, "upserting slot")
}

func (s *SQLiteSlot) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM slots WHERE key = ?`, key)
	return errors.Wrap(err, "deleting slot")
}

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}

func (s *SQLiteSlot) Locate(key string) string {
	return fmt.Sprintf("sqlite %s (row %q)", s.path, key)
}
