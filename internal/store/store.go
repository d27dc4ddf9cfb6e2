package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory registry.
const MemoryPath = ":memory:"

// Store is the SQLite registry of declared PHP types. It also holds the
// process-local static property values, which are runtime state and are
// never written to the database.
type Store struct {
	db *sql.DB

	staticsMu sync.RWMutex
	statics   map[int64]string
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled. Pass
// MemoryPath for a registry that lives only as long as the Store.
func NewStore(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000"
	if dbPath == MemoryPath {
		dsn = "file::memory:?_foreign_keys=ON"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, statics: make(map[int64]string)}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes and seeds the built-in types.
// Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedBuiltins(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT,
  namespace       TEXT,
  line_count      INTEGER DEFAULT 0,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER REFERENCES files(id),
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  visibility      TEXT,
  modifiers       TEXT,
  type_expr       TEXT,
  default_expr    TEXT,
  has_default     BOOLEAN DEFAULT FALSE,
  doc_comment     TEXT,
  start_line      INTEGER,
  end_line        INTEGER,
  parent_symbol_id INTEGER REFERENCES symbols(id)
);

CREATE TABLE IF NOT EXISTS function_parameters (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  type_expr       TEXT,
  has_default     BOOLEAN DEFAULT FALSE,
  default_expr    TEXT,
  is_variadic     BOOLEAN DEFAULT FALSE,
  is_by_ref       BOOLEAN DEFAULT FALSE,
  modifiers       TEXT
);

CREATE TABLE IF NOT EXISTS relations (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  target          TEXT NOT NULL,
  kind            TEXT NOT NULL,
  ordinal         INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS attributes (
  id              INTEGER PRIMARY KEY,
  target_kind     TEXT NOT NULL,
  target_id       INTEGER NOT NULL,
  name            TEXT NOT NULL,
  arguments       TEXT,
  ordinal         INTEGER DEFAULT 0,
  file_id         INTEGER REFERENCES files(id),
  line            INTEGER
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id);
CREATE INDEX IF NOT EXISTS idx_function_params_symbol ON function_parameters(symbol_id);
CREATE INDEX IF NOT EXISTS idx_relations_symbol ON relations(symbol_id);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_attributes_target ON attributes(target_kind, target_id);
`

// DeleteFileData transactionally removes everything declared in a file,
// including the file record. Deletes in reverse-dependency order to respect
// FK constraints.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM symbols WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("query symbols: %w", err)
	}
	var symbolIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan symbol id: %w", err)
		}
		symbolIDs = append(symbolIDs, id)
	}
	rows.Close()

	if len(symbolIDs) > 0 {
		placeholders := placeholderList(len(symbolIDs))
		args := int64sToArgs(symbolIDs)
		for _, q := range []string{
			"DELETE FROM attributes WHERE target_kind = 'param' AND target_id IN (SELECT id FROM function_parameters WHERE symbol_id IN (" + placeholders + "))",
			"DELETE FROM function_parameters WHERE symbol_id IN (" + placeholders + ")",
			"DELETE FROM relations WHERE symbol_id IN (" + placeholders + ")",
			"DELETE FROM attributes WHERE target_kind = 'symbol' AND target_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete child data: %w", err)
			}
		}

		s.staticsMu.Lock()
		for _, id := range symbolIDs {
			delete(s.statics, id)
		}
		s.staticsMu.Unlock()
	}

	// Members before their types.
	for _, q := range []string{
		"DELETE FROM symbols WHERE file_id = ? AND parent_symbol_id IS NOT NULL",
		"DELETE FROM symbols WHERE file_id = ?",
		"DELETE FROM attributes WHERE file_id = ?",
		"DELETE FROM files WHERE id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete file data: %w", err)
		}
	}

	return tx.Commit()
}

// GetMetadata returns a metadata value, or "" if the key is unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return value, nil
}

// SetMetadata upserts a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}
