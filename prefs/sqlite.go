package prefs

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/st-keller/inspection/errors"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore keeps preferences in a SQLite database.
// Use ":memory:" for an ephemeral store.
type SQLiteStore struct {
	db *sql.DB

	stmtGet     *sql.Stmt
	stmtSet     *sql.Stmt
	stmtDefault *sql.Stmt
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrInvalidInput, "preferences path required")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPrefsOpen, "opening database at %s", path)
	}

	// One connection keeps ":memory:" databases alive and writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "reading embedded schema")
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return errors.Wrap(err, errors.ErrPrefsOpen, "executing schema")
	}

	if s.stmtGet, err = s.db.Prepare(`SELECT expanded FROM group_expansion WHERE title = ?`); err != nil {
		return errors.Wrap(err, errors.ErrPrefsOpen, "preparing get")
	}
	if s.stmtSet, err = s.db.Prepare(`
		INSERT INTO group_expansion (title, expanded, is_default, updated_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(title) DO UPDATE SET
			expanded = excluded.expanded,
			is_default = 0,
			updated_at = excluded.updated_at
	`); err != nil {
		return errors.Wrap(err, errors.ErrPrefsOpen, "preparing set")
	}
	if s.stmtDefault, err = s.db.Prepare(`
		INSERT INTO group_expansion (title, expanded, is_default, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(title) DO NOTHING
	`); err != nil {
		return errors.Wrap(err, errors.ErrPrefsOpen, "preparing default")
	}
	return nil
}

func (s *SQLiteStore) Expanded(title string) (bool, bool) {
	var expanded bool
	if err := s.stmtGet.QueryRow(title).Scan(&expanded); err != nil {
		return false, false
	}
	return expanded, true
}

func (s *SQLiteStore) SetExpanded(title string, expanded bool) error {
	if _, err := s.stmtSet.Exec(title, expanded, time.Now().UnixNano()); err != nil {
		return errors.Wrapf(err, errors.ErrPrefsWrite, "setting %q", title)
	}
	return nil
}

func (s *SQLiteStore) RegisterDefaults(defaults map[string]bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.ErrPrefsWrite, "beginning transaction")
	}
	defer tx.Rollback()

	stmt := tx.Stmt(s.stmtDefault)
	now := time.Now().UnixNano()
	for _, title := range Titles(defaults) {
		if _, err := stmt.Exec(title, defaults[title], now); err != nil {
			return errors.Wrapf(err, errors.ErrPrefsWrite, "registering default %q", title)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrPrefsWrite, "committing defaults")
	}
	return nil
}

func (s *SQLiteStore) All() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT title, expanded FROM group_expansion`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPrefsRead, "listing preferences")
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var title string
		var expanded bool
		if err := rows.Scan(&title, &expanded); err != nil {
			return nil, errors.Wrap(err, errors.ErrPrefsRead, "scanning preference")
		}
		out[title] = expanded
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrPrefsRead, "iterating preferences")
	}
	return out, nil
}

// Close releases prepared statements and the database.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.stmtGet, s.stmtSet, s.stmtDefault} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
