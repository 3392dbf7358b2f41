package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"onepass/internal/database/migrations"
	"onepass/internal/keeper"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements keeper.Database over a single SQLite connection.
// Every exported method holds mu for the whole of its SQL work, so calls from
// different goroutines never interleave.
type SQLiteDatabase struct {
	mu    sync.Mutex
	db    *sql.DB
	clock keeper.Clock
	idgen keeper.IDGenerator
	path  string
}

// NewSQLiteDatabase opens the database at path, applies pending migrations
// and seeds default data. path can be a file path or ":memory:".
// A nil clock or idgen selects the real implementation.
func NewSQLiteDatabase(path string, clock keeper.Clock, idgen keeper.IDGenerator) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := NewSQLiteDatabaseFromDB(db, clock, idgen)
	s.path = path

	if err := s.Bootstrap(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured
// and the schema is in place.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock keeper.Clock, idgen keeper.IDGenerator) *SQLiteDatabase {
	if clock == nil {
		clock = keeper.RealClock{}
	}
	if idgen == nil {
		idgen = keeper.UUIDGenerator{}
	}
	return &SQLiteDatabase{db: db, clock: clock, idgen: idgen}
}

// OpenConnection opens and configures a SQLite database connection.
// The pool is limited to one connection: the vault is a single-writer store
// and ":memory:" databases are per connection.
func OpenConnection(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	return db, nil
}

type seedGroup struct {
	name string
	icon string
}

var defaultGroups = []seedGroup{
	{"工作", "🏢"},
	{"个人", "🏠"},
	{"银行", "🏦"},
	{"娱乐", "🎮"},
}

// Bootstrap inserts default settings that are absent and, when the vault has
// no groups at all, the default groups. Running it repeatedly is harmless.
func (s *SQLiteDatabase) Bootstrap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return keeper.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	for _, kv := range defaultSettingRows() {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return keeper.StorageError("seeding setting "+kv[0], err)
		}
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM groups`).Scan(&count); err != nil {
		return keeper.StorageError("counting groups", err)
	}
	if count == 0 {
		now := s.now()
		for i, g := range defaultGroups {
			_, err := tx.Exec(`INSERT INTO groups (id, name, icon, sort_order, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`, s.idgen.New(), g.name, g.icon, i, now, now)
			if err != nil {
				return keeper.StorageError("seeding group "+g.name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return keeper.StorageError("committing bootstrap", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a consistent copy of the database to destPath using VACUUM INTO.
// destPath must not exist.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return keeper.StorageError("backing up database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) now() int64 {
	return s.clock.Now().Unix()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(what, id string) error {
	return &keeper.Error{Kind: keeper.ErrNotFound, Msg: fmt.Sprintf("%s %s not found", what, id)}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// nullable converts an optional string to a bind value (nil binds NULL).
func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time check that SQLiteDatabase implements keeper.Database
var _ keeper.Database = (*SQLiteDatabase)(nil)
