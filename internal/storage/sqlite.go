package storage

import (
	"context"
	"database/sql"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/romangod6/sitemapgen/internal/errors"
)

// SQLiteStore lists content rows from tables of a SQLite database file.
type SQLiteStore struct {
	opts tableOptions
}

func NewSQLiteStore(o TableStoreOptions) *SQLiteStore {
	name := o.Name
	if name == "" {
		name = "sqlite"
	}
	return &SQLiteStore{opts: tableOptions{
		name:     name,
		driver:   "sqlite3",
		dsn:      o.DSN,
		tables:   o.Tables,
		prefixes: o.Prefixes,
		fields:   o.Fields.WithDefaults(ColumnFields),
		timeout:  timeoutOrDefault(o.Timeout),
		quote:    quoteSQLite,
		openDB:   sql.Open,
	}}
}

func (s *SQLiteStore) Name() string          { return s.opts.name }
func (s *SQLiteStore) Collections() []string { return s.opts.tables }

func (s *SQLiteStore) PathPrefix(table string) string {
	return s.opts.prefixes.For(table)
}

// Open refuses a database file that does not exist; the driver would
// otherwise create an empty one.
func (s *SQLiteStore) Open(ctx context.Context) (Lister, error) {
	if path := sqlitePath(s.opts.dsn); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(err, "sqlite database")
		}
	}
	l, err := s.opts.open(ctx)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// sqlitePath is the file behind a DSN, or "" for in-memory databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

func quoteSQLite(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
