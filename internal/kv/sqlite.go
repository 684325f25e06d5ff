// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists key-value entries plus a change journal for cross-process notification

package kv

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// FeedFileSuffix is appended to the database path to form the feed file,
// a sidecar whose content is the latest journal sequence number. Watchers
// monitor this file instead of the database itself so they wake exactly
// once per committed mutation.
const FeedFileSuffix = ".feed"

// SQLiteStore implements Store backed by a SQLite database file. Every
// mutation is recorded in a change journal and mirrored to the feed file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	origin string
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) a store at the given path.
// Parent directories are created if needed. Each open store gets a fresh
// origin ID so it can recognize its own writes in the journal.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "kv")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode so a watcher process can read while we write
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		path:   path,
		origin: uuid.New().String(),
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("kv store opened", "path", path, "origin", s.origin)
	return s, nil
}

// createSchema creates the tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS changes (
			seq    INTEGER PRIMARY KEY AUTOINCREMENT,
			origin TEXT NOT NULL,
			key    TEXT NOT NULL,
			op     TEXT NOT NULL,
			at     TEXT NOT NULL,

			CHECK (op IN ('set', 'remove'))
		);

		CREATE INDEX IF NOT EXISTS idx_changes_key ON changes(key);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Origin returns this store's process-unique origin ID.
func (s *SQLiteStore) Origin() string {
	return s.origin
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// FeedPath returns the path of the sidecar feed file.
func (s *SQLiteStore) FeedPath() string {
	return s.path + FeedFileSuffix
}

// Get returns the value for key, or ErrNotFound.
func (s *SQLiteStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM entries WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key and journals the change.
func (s *SQLiteStore) Set(key, value string) error {
	return s.mutate(key, OpSet, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO entries (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
		return err
	})
}

// Remove deletes key and journals the change. Removing a missing key is a no-op.
func (s *SQLiteStore) Remove(key string) error {
	return s.mutate(key, OpRemove, func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM entries WHERE key = ?", key)
		return err
	})
}

// Keys returns all keys with the given prefix, sorted.
func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT key FROM entries WHERE key LIKE ? || '%' ORDER BY key", prefix)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// mutate applies fn and the matching journal row in one transaction, then
// bumps the feed file to the new sequence number.
func (s *SQLiteStore) mutate(key string, op ChangeOp, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	res, err := tx.Exec(
		"INSERT INTO changes (origin, key, op, at) VALUES (?, ?, ?, ?)",
		s.origin, key, string(op), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("journaling change for key %q: %w", key, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading change sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing change for key %q: %w", key, err)
	}

	s.bumpFeed(seq)
	return nil
}

// bumpFeed rewrites the feed file with the latest sequence number. Feed
// failures are logged, not returned: the local write already succeeded and
// the journal remains authoritative for catch-up reads.
func (s *SQLiteStore) bumpFeed(seq int64) {
	if err := os.WriteFile(s.FeedPath(), []byte(strconv.FormatInt(seq, 10)), 0644); err != nil {
		s.logger.Warn("updating feed file failed", "path", s.FeedPath(), "error", err)
	}
}

// ChangesSince returns journal entries with sequence numbers greater than
// seq, oldest first, along with the highest sequence number seen.
func (s *SQLiteStore) ChangesSince(seq int64) ([]Change, int64, error) {
	rows, err := s.db.Query(
		"SELECT seq, origin, key, op, at FROM changes WHERE seq > ? ORDER BY seq", seq)
	if err != nil {
		return nil, seq, fmt.Errorf("reading change journal: %w", err)
	}
	defer rows.Close()

	last := seq
	var changes []Change
	for rows.Next() {
		var c Change
		var at string
		if err := rows.Scan(&c.Seq, &c.Origin, &c.Key, (*string)(&c.Op), &at); err != nil {
			return nil, last, fmt.Errorf("scanning change: %w", err)
		}
		c.At, _ = time.Parse(time.RFC3339Nano, at)
		if c.Seq > last {
			last = c.Seq
		}
		changes = append(changes, c)
	}
	return changes, last, rows.Err()
}

// LastSeq returns the highest journal sequence number, or 0 for an empty journal.
func (s *SQLiteStore) LastSeq() (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(seq) FROM changes").Scan(&seq); err != nil {
		return 0, fmt.Errorf("reading last sequence: %w", err)
	}
	return seq.Int64, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
