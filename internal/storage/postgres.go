package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// PostgresStore lists content rows from PostgreSQL tables.
type PostgresStore struct {
	opts tableOptions
}

type TableStoreOptions struct {
	Name     string
	DSN      string
	Tables   []string
	Prefixes Prefixes
	Fields   FieldMap
	Timeout  time.Duration
}

func NewPostgresStore(o TableStoreOptions) *PostgresStore {
	name := o.Name
	if name == "" {
		name = "postgres"
	}
	return &PostgresStore{opts: tableOptions{
		name:     name,
		driver:   "postgres",
		dsn:      o.DSN,
		tables:   o.Tables,
		prefixes: o.Prefixes,
		fields:   o.Fields.WithDefaults(ColumnFields),
		timeout:  timeoutOrDefault(o.Timeout),
		quote:    pq.QuoteIdentifier,
		openDB:   sql.Open,
	}}
}

func (s *PostgresStore) Name() string          { return s.opts.name }
func (s *PostgresStore) Collections() []string { return s.opts.tables }

func (s *PostgresStore) PathPrefix(table string) string {
	return s.opts.prefixes.For(table)
}

func (s *PostgresStore) Open(ctx context.Context) (Lister, error) {
	l, err := s.opts.open(ctx)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
