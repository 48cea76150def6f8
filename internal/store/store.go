package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite layer for exported build snapshots. A snapshot holds
// the queryable surface of one or more builds: their file registries,
// declaration indexes, reference links, and diagnostics.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS builds (
  id            TEXT PRIMARY KEY,
  version       TEXT,
  language      TEXT,
  source_format TEXT NOT NULL,
  node_count    INTEGER NOT NULL,
  exported_at   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
  build_id      TEXT NOT NULL REFERENCES builds(id),
  file_index    INTEGER NOT NULL,
  path          TEXT NOT NULL,
  PRIMARY KEY (build_id, file_index)
);

CREATE TABLE IF NOT EXISTS symbols (
  build_id      TEXT NOT NULL REFERENCES builds(id),
  id            INTEGER NOT NULL,
  name          TEXT NOT NULL,
  kind          TEXT NOT NULL,
  qualified     TEXT,
  path          TEXT,
  start_offset  INTEGER,
  length        INTEGER,
  start_line    INTEGER,
  start_col     INTEGER,
  ref_count     INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (build_id, id)
);

CREATE TABLE IF NOT EXISTS refs (
  build_id      TEXT NOT NULL REFERENCES builds(id),
  node_id       INTEGER NOT NULL,
  decl_id       INTEGER NOT NULL,
  path          TEXT,
  start_offset  INTEGER,
  start_line    INTEGER,
  start_col     INTEGER,
  PRIMARY KEY (build_id, node_id)
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id            INTEGER PRIMARY KEY,
  build_id      TEXT NOT NULL REFERENCES builds(id),
  severity      TEXT NOT NULL,
  code          TEXT,
  message       TEXT NOT NULL,
  path          TEXT,
  start_offset  INTEGER,
  end_offset    INTEGER
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(build_id, name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(build_id, kind);
CREATE INDEX IF NOT EXISTS idx_symbols_path ON symbols(build_id, path);
CREATE INDEX IF NOT EXISTS idx_refs_decl ON refs(build_id, decl_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_build ON diagnostics(build_id);
`

// DeleteBuildData transactionally removes everything stored for a build,
// in reverse-dependency order to respect FK constraints. Used before
// re-exporting the same build id.
func (s *Store) DeleteBuildData(buildID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteBuildTx(tx, buildID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteBuildTx(tx *sql.Tx, buildID string) error {
	for _, q := range []string{
		"DELETE FROM diagnostics WHERE build_id = ?",
		"DELETE FROM refs WHERE build_id = ?",
		"DELETE FROM symbols WHERE build_id = ?",
		"DELETE FROM files WHERE build_id = ?",
		"DELETE FROM builds WHERE id = ?",
	} {
		if _, err := tx.Exec(q, buildID); err != nil {
			return fmt.Errorf("delete build data: %w", err)
		}
	}
	return nil
}
