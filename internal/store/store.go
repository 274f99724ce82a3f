package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the class index.
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
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS modules (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER REFERENCES files(id),
  name            TEXT NOT NULL,
  version         TEXT
);

CREATE TABLE IF NOT EXISTS module_dependencies (
  id              INTEGER PRIMARY KEY,
  module_id       INTEGER NOT NULL REFERENCES modules(id),
  name            TEXT NOT NULL,
  version         TEXT
);

CREATE TABLE IF NOT EXISTS classes (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER REFERENCES files(id),
  qualified_name  TEXT NOT NULL,
  package         TEXT,
  module          TEXT,
  kind            TEXT NOT NULL,
  modifiers       INTEGER NOT NULL DEFAULT 0,
  compiled        BOOLEAN DEFAULT FALSE,
  extensible      BOOLEAN DEFAULT TRUE,
  valid           BOOLEAN DEFAULT TRUE,
  signature_hash  TEXT
);

CREATE TABLE IF NOT EXISTS class_supertypes (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  name            TEXT NOT NULL,
  relation        TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS class_imports (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fields (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  name            TEXT NOT NULL,
  type_expr       TEXT,
  modifiers       INTEGER NOT NULL DEFAULT 0,
  ordinal         INTEGER NOT NULL,
  is_property     BOOLEAN DEFAULT FALSE,
  read_exposed    BOOLEAN DEFAULT FALSE,
  read_visibility INTEGER DEFAULT 0,
  write_exposed   BOOLEAN DEFAULT FALSE,
  write_visibility INTEGER DEFAULT 0,
  mutable         BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS methods (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id),
  name            TEXT NOT NULL,
  return_type     TEXT,
  modifiers       INTEGER NOT NULL DEFAULT 0,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS method_params (
  id              INTEGER PRIMARY KEY,
  method_id       INTEGER NOT NULL REFERENCES methods(id),
  name            TEXT,
  type_expr       TEXT,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
  id              INTEGER PRIMARY KEY,
  field_id        INTEGER REFERENCES fields(id),
  method_id       INTEGER REFERENCES methods(id),
  name            TEXT NOT NULL,
  text            TEXT,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS property_tags (
  id              INTEGER PRIMARY KEY,
  method_id       INTEGER NOT NULL UNIQUE REFERENCES methods(id),
  name            TEXT,
  flags           INTEGER
);

CREATE TABLE IF NOT EXISTS property_tag_annotations (
  id              INTEGER PRIMARY KEY,
  tag_id          INTEGER NOT NULL REFERENCES property_tags(id),
  qualified_name  TEXT,
  text            TEXT,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_modules_name ON modules(name);
CREATE INDEX IF NOT EXISTS idx_modules_file ON modules(file_id);
CREATE INDEX IF NOT EXISTS idx_module_deps_module ON module_dependencies(module_id);
CREATE INDEX IF NOT EXISTS idx_classes_name ON classes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_classes_file ON classes(file_id);
CREATE INDEX IF NOT EXISTS idx_class_supertypes_class ON class_supertypes(class_id);
CREATE INDEX IF NOT EXISTS idx_class_supertypes_name ON class_supertypes(name);
CREATE INDEX IF NOT EXISTS idx_class_imports_class ON class_imports(class_id);
CREATE INDEX IF NOT EXISTS idx_fields_class ON fields(class_id);
CREATE INDEX IF NOT EXISTS idx_methods_class ON methods(class_id);
CREATE INDEX IF NOT EXISTS idx_method_params_method ON method_params(method_id);
CREATE INDEX IF NOT EXISTS idx_annotations_field ON annotations(field_id);
CREATE INDEX IF NOT EXISTS idx_annotations_method ON annotations(method_id);
CREATE INDEX IF NOT EXISTS idx_property_tag_annotations_tag ON property_tag_annotations(tag_id);
`

// DeleteFileData transactionally removes every class and module extracted
// from a file, children first to respect FK constraints. The file record
// itself is kept.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	classIDs, err := queryIDs(tx, "SELECT id FROM classes WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("query classes: %w", err)
	}
	if err := deleteClassesTx(tx, classIDs); err != nil {
		return err
	}

	moduleIDs, err := queryIDs(tx, "SELECT id FROM modules WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("query modules: %w", err)
	}
	if len(moduleIDs) > 0 {
		placeholders := placeholderList(len(moduleIDs))
		args := int64sToArgs(moduleIDs)
		for _, q := range []string{
			"DELETE FROM module_dependencies WHERE module_id IN (" + placeholders + ")",
			"DELETE FROM modules WHERE id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete module data: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file record and all data extracted from it.
func (s *Store) DeleteFile(fileID int64) error {
	if err := s.DeleteFileData(fileID); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM files WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

// deleteClassesTx removes classes and everything hanging off them.
func deleteClassesTx(tx *sql.Tx, classIDs []int64) error {
	if len(classIDs) == 0 {
		return nil
	}
	classPH := placeholderList(len(classIDs))
	classArgs := int64sToArgs(classIDs)

	fieldIDs, err := queryIDs(tx, "SELECT id FROM fields WHERE class_id IN ("+classPH+")", classArgs...)
	if err != nil {
		return fmt.Errorf("query fields: %w", err)
	}
	methodIDs, err := queryIDs(tx, "SELECT id FROM methods WHERE class_id IN ("+classPH+")", classArgs...)
	if err != nil {
		return fmt.Errorf("query methods: %w", err)
	}

	if len(methodIDs) > 0 {
		methodPH := placeholderList(len(methodIDs))
		methodArgs := int64sToArgs(methodIDs)
		for _, q := range []string{
			"DELETE FROM property_tag_annotations WHERE tag_id IN (SELECT id FROM property_tags WHERE method_id IN (" + methodPH + "))",
			"DELETE FROM property_tags WHERE method_id IN (" + methodPH + ")",
			"DELETE FROM method_params WHERE method_id IN (" + methodPH + ")",
			"DELETE FROM annotations WHERE method_id IN (" + methodPH + ")",
		} {
			if _, err := tx.Exec(q, methodArgs...); err != nil {
				return fmt.Errorf("delete method data: %w", err)
			}
		}
	}
	if len(fieldIDs) > 0 {
		if _, err := tx.Exec("DELETE FROM annotations WHERE field_id IN ("+placeholderList(len(fieldIDs))+")", int64sToArgs(fieldIDs)...); err != nil {
			return fmt.Errorf("delete field annotations: %w", err)
		}
	}

	for _, q := range []string{
		"DELETE FROM methods WHERE class_id IN (" + classPH + ")",
		"DELETE FROM fields WHERE class_id IN (" + classPH + ")",
		"DELETE FROM class_imports WHERE class_id IN (" + classPH + ")",
		"DELETE FROM class_supertypes WHERE class_id IN (" + classPH + ")",
		"DELETE FROM classes WHERE id IN (" + classPH + ")",
	} {
		if _, err := tx.Exec(q, classArgs...); err != nil {
			return fmt.Errorf("delete class data: %w", err)
		}
	}
	return nil
}
