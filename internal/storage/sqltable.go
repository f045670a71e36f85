package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
)

// NoColumn in a FieldMap of a SQL store means the table has no such column.
const NoColumn = "-"

// tableOptions is shared by the relational stores; each collection is a
// table (optionally schema-qualified) holding one content record per row.
type tableOptions struct {
	name     string
	driver   string
	dsn      string
	tables   []string
	prefixes Prefixes
	fields   FieldMap
	timeout  time.Duration
	quote    func(string) string
	openDB   func(driver, dsn string) (*sql.DB, error)
}

func (o *tableOptions) open(ctx context.Context) (*tableLister, error) {
	if o.dsn == "" {
		return nil, errors.New("no connection string configured")
	}
	db, err := o.openDB(o.driver, o.dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", o.driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s", o.driver)
	}
	return &tableLister{db: db, opts: o}, nil
}

// selectQuery builds the projection of one table with quoted identifiers.
func (o *tableOptions) selectQuery(table string) string {
	cols := make([]string, 0, 3)
	for _, c := range []string{o.fields.URL, o.fields.Published, o.fields.Modified} {
		if c == NoColumn {
			cols = append(cols, "NULL")
			continue
		}
		cols = append(cols, o.quote(c))
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = o.quote(p)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), strings.Join(parts, "."))
}

type tableLister struct {
	db   *sql.DB
	opts *tableOptions
}

func (l *tableLister) List(ctx context.Context, table string) ([]models.ContentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.timeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, l.opts.selectQuery(table))
	if err != nil {
		return nil, errors.Wrapf(err, "query table %s", table)
	}
	defer rows.Close()

	var records []models.ContentRecord
	for rows.Next() {
		var url, published, modified any
		if err := rows.Scan(&url, &published, &modified); err != nil {
			return nil, errors.Wrapf(err, "scan table %s", table)
		}
		records = append(records, models.ContentRecord{
			CanonicalURL: stringValue(url),
			PublishedAt:  stringValue(published),
			ModifiedAt:   stringValue(modified),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate table %s", table)
	}
	return records, nil
}

func (l *tableLister) Close() error {
	return l.db.Close()
}
