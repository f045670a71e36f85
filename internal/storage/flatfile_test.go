package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/romangod6/sitemapgen/internal/errors"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestFlatFileStoreSkipsNonArrayFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "breakingnews.json", `[
		{"canonicalUrl": "https://www.example.com/breaking-news/a", "datePublished": "2024-05-01"},
		{"canonicalUrl": "post-b", "datePublished": "2024-05-02", "dateModified": "2024-05-03"}
	]`)
	writeFile(t, dir, "settings.json", `{"theme": "dark"}`)
	writeFile(t, dir, "notes.txt", `ignored`)

	core, logs := observer.New(zap.WarnLevel)
	store := NewFlatFileStore(FlatFileOptions{
		Dir:      dir,
		Prefixes: Prefixes{"breakingnews": "/breaking-news"},
	})
	assert.Equal(t, []string{"breakingnews", "settings"}, store.Collections())
	assert.Equal(t, "/breaking-news", store.PathPrefix("breakingnews"))

	records, err := Fetch(context.Background(), store, zap.New(core).Sugar())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "post-b", records[1].CanonicalURL)
	assert.Equal(t, "2024-05-03", records[1].ModifiedAt)

	skipped := logs.FilterMessage("Skipping collection").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "settings", skipped[0].ContextMap()["collection"])
}

func TestFlatFileListReportsNotArray(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "obj.json", `{"a": 1}`)
	l, err := NewFlatFileStore(FlatFileOptions{Dir: dir}).Open(context.Background())
	require.NoError(t, err)
	_, err = l.List(context.Background(), "obj")
	assert.True(t, errors.Is(err, ErrNotArray))
}

func TestFlatFileStoreNamedFilesAndFieldMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "remotejobs.json", `[
		{"canonicalUrl": "/extra-income/remote-jobs/1", "datePosted": "2024-01-10"},
		{"canonicalUrl": "/extra-income/remote-jobs/2"},
		"not an object",
		{"canonicalUrl": {"nested": true}, "datePosted": "2024-01-10"}
	]`)
	store := NewFlatFileStore(FlatFileOptions{
		Name:   "legacy",
		Dir:    dir,
		Files:  []string{"remotejobs.json"},
		Fields: FieldMap{Published: "datePosted"},
	})
	assert.Equal(t, "legacy", store.Name())
	assert.Equal(t, []string{"remotejobs"}, store.Collections())

	records, err := Fetch(context.Background(), store, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01-10", records[0].PublishedAt)
}

func TestFlatFileStoreMissingDirectory(t *testing.T) {
	store := NewFlatFileStore(FlatFileOptions{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Empty(t, store.Collections())
	_, err := Fetch(context.Background(), store, nil)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
}

func TestFlatFileStoreMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `[{"canonicalUrl": "/a",`)
	l, err := NewFlatFileStore(FlatFileOptions{Dir: dir}).Open(context.Background())
	require.NoError(t, err)
	_, err = l.List(context.Background(), "broken")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotArray))
}
