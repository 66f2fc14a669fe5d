package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the single-file Repository used for local runs and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema. A path that already carries a query string is used
// verbatim as the DSN.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if !strings.Contains(path, "?") {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Open returns a session over the shared handle; statements are short, so
// sessions do not pin a connection.
func (s *SQLiteStore) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &sqlSession{q: &sqliteQuerier{db: s.db}}, nil
}

func (s *SQLiteStore) Close() { s.db.Close() }

type sqliteQuerier struct {
	db *sql.DB
}

var pgPlaceholder = regexp.MustCompile(`\$(\d+)`)

// rebind turns $n placeholders into SQLite's ?n form.
func rebind(q string) string {
	return pgPlaceholder.ReplaceAllString(q, "?$1")
}

func (l *sqliteQuerier) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := l.db.ExecContext(ctx, rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (l *sqliteQuerier) queryRow(ctx context.Context, q string, args ...any) rowScanner {
	return l.db.QueryRowContext(ctx, rebind(q), args...)
}

func (l *sqliteQuerier) query(ctx context.Context, q string, args ...any) (rowsIter, error) {
	rows, err := l.db.QueryContext(ctx, rebind(q), args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (l *sqliteQuerier) isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

func (l *sqliteQuerier) timeArg(t time.Time) any { return t.UTC().Format("2006-01-02 15:04:05") }

func (l *sqliteQuerier) release() error { return nil }

type sqlRows struct{ *sql.Rows }

func (r sqlRows) Close() { r.Rows.Close() }
