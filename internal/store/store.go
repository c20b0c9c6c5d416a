package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/conclave/internal/model"
)

// Schema version tracking:
// 1 - agent, meeting, chat, agents_by_meeting
const currentSchemaVersion = 1

// MemoryName opens a private in-memory store.
const MemoryName = ":memory:"

// Store owns the SQLite connection of one conversation store.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db       *sql.DB
	path     string
	registry *model.Registry
	logger   *slog.Logger
}

// Path resolves a logical store name to a database file location under dir.
// A ".db" extension is added when name has none. MemoryName is returned as is.
func Path(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("store name is required")
	}
	if name == MemoryName {
		return name, nil
	}
	if filepath.Ext(name) == "" {
		name += ".db"
	}
	if dir == "" || filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(dir, name), nil
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and creates the registry's schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// The returned store may be used from any goroutine. All failures are
// reported as *InitError.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	if o.registry.Len() == 0 {
		return nil, &InitError{Path: path, Err: errors.New("schema registry is empty")}
	}

	// _foreign_keys is applied by the driver on every new connection, so
	// enforcement survives the pool replacing a broken connection.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, &InitError{Path: path, Err: fmt.Errorf("failed to open database: %w", err)}
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &InitError{Path: path, Err: fmt.Errorf("failed to connect to database: %w", err)}
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, path); err != nil {
		db.Close()
		return nil, &InitError{Path: path, Err: fmt.Errorf("failed to apply pragmas: %w", err)}
	}

	if err := applySchema(db, o.registry); err != nil {
		db.Close()
		return nil, &InitError{Path: path, Err: fmt.Errorf("failed to apply schema: %w", err)}
	}

	o.logger.Debug("store opened", "path", path, "tables", o.registry.Len())
	return &Store{db: db, path: path, registry: o.registry, logger: o.logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database location the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Registry returns the schema registry the store was created from.
func (s *Store) Registry() *model.Registry {
	return s.registry
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, path string) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	// In-memory databases cannot use WAL.
	if path != MemoryName {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates every registered table and index if absent, stamps the
// schema version, and verifies the tables exist.
// This function is idempotent.
func applySchema(db *sql.DB, registry *model.Registry) error {
	for _, t := range registry.Tables() {
		if _, err := db.Exec(createTableSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		for _, idx := range t.Indexes {
			if _, err := db.Exec(createIndexSQL(t, idx)); err != nil {
				return fmt.Errorf("create index %s: %w", idx.Name, err)
			}
		}
	}

	if err := stampVersion(db); err != nil {
		return err
	}

	for _, t := range registry.Tables() {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", t.Name,
		).Scan(&name)
		if err != nil {
			return fmt.Errorf("table %s missing after schema creation: %w", t.Name, err)
		}
	}

	return nil
}

// stampVersion records the schema version in user_version. A store written
// by a newer schema version is rejected rather than modified.
func stampVersion(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Initialize opens the store named name under dir and returns a session that
// owns it, along with the schema registry. dir is created if missing.
// Closing the session closes the store.
func Initialize(dir, name string, opts ...Option) (*Session, *model.Registry, error) {
	path, err := Path(dir, name)
	if err != nil {
		return nil, nil, &InitError{Path: name, Err: err}
	}
	if path != MemoryName && dir != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, &InitError{Path: path, Err: err}
		}
	}

	st, err := Open(path, opts...)
	if err != nil {
		return nil, nil, err
	}

	sess := newSession(st, true, opts)
	return sess, st.registry, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// ping reports whether the store can still be reached.
func (s *Store) ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}
