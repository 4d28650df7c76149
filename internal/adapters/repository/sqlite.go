package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/jamal/internal/domain/model"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id      TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_subject ON evaluations(subject_id);
CREATE TABLE IF NOT EXISTS listings (
	id      TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);`

// SQLiteStore persists each record as a JSON row and serves reads from an
// in-memory copy loaded at open. Writes go to SQLite first, then memory.
type SQLiteStore struct {
	*MemoryStore
	db   *sql.DB
	mu   sync.Mutex
	path string

	busyTimeout  time.Duration
	maxOpenConns int
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and loads its contents.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path == "" {
		path = "jamal.db"
	}
	s := &SQLiteStore{
		MemoryStore:  NewMemoryStore(),
		path:         path,
		busyTimeout:  5 * time.Second,
		maxOpenConns: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// load replays every table into memory in insertion order.
func (s *SQLiteStore) load(ctx context.Context) error {
	s.MemoryStore.mu.Lock()
	defer s.MemoryStore.mu.Unlock()

	if err := s.scan(ctx, `SELECT payload FROM profiles ORDER BY rowid`, func(raw []byte) error {
		var p model.SubjectProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		return s.putProfileLocked(p)
	}); err != nil {
		return err
	}
	if err := s.scan(ctx, `SELECT payload FROM evaluations ORDER BY rowid`, func(raw []byte) error {
		var e model.Evaluation
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("decode evaluation: %w", err)
		}
		s.appendEvaluationLocked(e)
		return nil
	}); err != nil {
		return err
	}
	return s.scan(ctx, `SELECT payload FROM listings ORDER BY rowid`, func(raw []byte) error {
		var l model.Listing
		if err := json.Unmarshal(raw, &l); err != nil {
			return fmt.Errorf("decode listing: %w", err)
		}
		return s.addListingLocked(l)
	})
}

func (s *SQLiteStore) scan(ctx context.Context, query string, fn func([]byte) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PutProfile implements Store.
func (s *SQLiteStore) PutProfile(ctx context.Context, p model.SubjectProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.MemoryStore.Profile(ctx, p.ID); err == nil {
		return fmt.Errorf("profile %q: %w", p.ID, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO profiles(id, payload) VALUES(?, ?)`, p.ID, data); err != nil {
		return fmt.Errorf("insert profile %q: %w", p.ID, err)
	}
	return s.MemoryStore.PutProfile(ctx, p)
}

// AppendEvaluation implements Store.
func (s *SQLiteStore) AppendEvaluation(ctx context.Context, e model.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO evaluations(id, subject_id, payload) VALUES(?, ?, ?)`, e.ID, e.SubjectID, data); err != nil {
		return fmt.Errorf("insert evaluation %q: %w", e.ID, err)
	}
	return s.MemoryStore.AppendEvaluation(ctx, e)
}

// AddListing implements Store.
func (s *SQLiteStore) AddListing(ctx context.Context, l model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.MemoryStore.mu.RLock()
	_, exists := s.listings[l.ID]
	s.MemoryStore.mu.RUnlock()
	if exists {
		return fmt.Errorf("listing %q: %w", l.ID, ErrAlreadyExists)
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO listings(id, payload) VALUES(?, ?)`, l.ID, data); err != nil {
		return fmt.Errorf("insert listing %q: %w", l.ID, err)
	}
	return s.MemoryStore.AddListing(ctx, l)
}

// Close closes the database and the in-memory view.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.MemoryStore.Close()
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }
