// Package progstore caches compiled programs in SQLite, keyed by a hash
// of their source text. The cache is an optimization only: a miss, a
// stale row, or a decode failure just means the caller recompiles.
package progstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/tapevm/pkg/bytecode"
)

// ErrNotCached indicates no cached program exists for the source.
var ErrNotCached = errors.New("program not cached")

// Store is a SQLite-backed cache of compiled programs.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		id          TEXT PRIMARY KEY,
		source_hash TEXT UNIQUE NOT NULL,
		source_len  INTEGER NOT NULL,
		program     BLOB NOT NULL,
		created_at  TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating programs table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the compiled program for the given source, replacing any
// previous entry for the same source text.
func (s *Store) Put(source string, prog *bytecode.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := marshalProgram(prog)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO programs (id, source_hash, source_len, program, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_hash) DO UPDATE SET
			source_len = excluded.source_len,
			program    = excluded.program,
			created_at = excluded.created_at`,
		uuid.New().String(), sourceHash(source), len(source), blob,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing program: %w", err)
	}
	return nil
}

// Get returns the cached program for the given source text, or
// ErrNotCached if no entry exists. The row is keyed by source hash, so a
// hit is guaranteed to correspond to this exact source.
func (s *Store) Get(source string) (*bytecode.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	err := s.db.QueryRow(`SELECT program FROM programs WHERE source_hash = ?`,
		sourceHash(source)).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("loading program: %w", err)
	}

	return unmarshalProgram(blob)
}

// Count returns the number of cached programs.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM programs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting programs: %w", err)
	}
	return n, nil
}

func sourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
