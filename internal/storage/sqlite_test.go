package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/internal/errors"
)

func TestSQLiteStoreListsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE "money_making_apps" (
		id INTEGER PRIMARY KEY,
		canonical_url TEXT,
		date_published TEXT,
		date_modified TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO money_making_apps (canonical_url, date_published, date_modified) VALUES
		('/extra-income/money-making-apps/swagbucks', '2024-03-01', NULL),
		('ibotta', '2024-03-02', '2024-04-01'),
		(NULL, '2024-03-03', NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store := NewSQLiteStore(TableStoreOptions{
		DSN:      path,
		Tables:   []string{"money_making_apps"},
		Prefixes: Prefixes{"money_making_apps": "/extra-income/money-making-apps"},
	})
	records, err := Fetch(context.Background(), store, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ibotta", records[1].CanonicalURL)
	assert.Equal(t, "2024-04-01", records[1].ModifiedAt)
	assert.Equal(t, "/extra-income/money-making-apps", store.PathPrefix("money_making_apps"))
}

func TestSQLiteStoreMissingFile(t *testing.T) {
	store := NewSQLiteStore(TableStoreOptions{DSN: filepath.Join(t.TempDir(), "nope.db"), Tables: []string{"a"}})
	_, err := Fetch(context.Background(), store, nil)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
}

func TestSQLitePathAndQuote(t *testing.T) {
	assert.Equal(t, "data/site.db", sqlitePath("file:data/site.db?mode=ro"))
	assert.Equal(t, "", sqlitePath(":memory:"))
	assert.Equal(t, "", sqlitePath("file::memory:?cache=shared"))
	assert.Equal(t, `"we""ird"`, quoteSQLite(`we"ird`))
}
