// Package history keeps a local log of version checks in SQLite so
// `prochub --history` can show when the last checks ran and what they found.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	appErrors "prochub/internal/errors"
	"prochub/internal/update"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultLimit is how many entries Recent returns when limit <= 0.
const DefaultLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS checks (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	checked_at     TEXT    NOT NULL,
	local_version  TEXT    NOT NULL DEFAULT '',
	remote_version TEXT    NOT NULL DEFAULT '',
	url            TEXT    NOT NULL DEFAULT '',
	state          TEXT    NOT NULL,
	error          TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks(checked_at);
`

// Entry is one recorded check.
type Entry struct {
	ID            int64     `json:"id"`
	CheckedAt     time.Time `json:"checked_at"`
	LocalVersion  string    `json:"local_version"`
	RemoteVersion string    `json:"remote_version"`
	URL           string    `json:"url,omitempty"`
	State         string    `json:"state"`
	Error         string    `json:"error,omitempty"`
}

// Store is a SQLite-backed update.Recorder.
type Store struct {
	path string
	db   *sql.DB
	now  func() time.Time

	mu     sync.Mutex
	closed bool
}

var _ update.Recorder = (*Store)(nil)

// Open creates (if needed) and opens the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, appErrors.New(appErrors.CodeStoreFailed, "history path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, appErrors.New(appErrors.CodeStoreFailed, "create history directory", err)
	}

	db, err := sql.Open("sqlite", buildDSN(trimmed))
	if err != nil {
		return nil, appErrors.New(appErrors.CodeStoreFailed, "open history db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, appErrors.New(appErrors.CodeStoreFailed, "ping history db", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, appErrors.New(appErrors.CodeStoreFailed, "create history schema", err)
	}
	return &Store{path: trimmed, db: db, now: time.Now}, nil
}

// buildDSN creates a read-write WAL DSN for the given path.
func buildDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(3000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record appends one verdict.
func (s *Store) Record(ctx context.Context, v update.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return appErrors.New(appErrors.CodeStoreFailed, "history store is closed", nil)
	}

	var errText string
	if v.Err != nil {
		errText = v.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checks (checked_at, local_version, remote_version, url, state, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano),
		v.Local,
		v.Info.Version,
		v.Info.URL,
		v.State.String(),
		errText,
	)
	if err != nil {
		return appErrors.New(appErrors.CodeStoreFailed, "insert check", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, appErrors.New(appErrors.CodeStoreFailed, "history store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, checked_at, local_version, remote_version, url, state, error
		FROM checks
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeStoreFailed, "query checks", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			checkedAt string
		)
		if err := rows.Scan(&e.ID, &checkedAt, &e.LocalVersion, &e.RemoteVersion, &e.URL, &e.State, &e.Error); err != nil {
			return nil, appErrors.New(appErrors.CodeStoreFailed, "scan check", err)
		}
		e.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt)
		if err != nil {
			return nil, appErrors.New(appErrors.CodeStoreFailed, fmt.Sprintf("parse checked_at %q", checkedAt), err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.New(appErrors.CodeStoreFailed, "iterate checks", err)
	}
	return entries, nil
}

// Close releases the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
