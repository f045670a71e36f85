package feed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
)

func TestWriteSingleEntry(t *testing.T) {
	var buf bytes.Buffer
	err := Writer{}.Write([]models.SitemapEntry{
		{URL: "https://example.com/", ChangeFreq: models.ChangeDaily, Priority: 1, Class: models.ClassHome},
	}, &buf)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` +
		`<url><loc>https://example.com/</loc><changefreq>daily</changefreq><priority>1.0</priority></url>` +
		"</urlset>\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteKeepsOrderAndLastMod(t *testing.T) {
	mod := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	var buf bytes.Buffer
	err := Writer{}.Write([]models.SitemapEntry{
		{URL: "https://example.com/b", ChangeFreq: models.ChangeMonthly, Priority: 0.5},
		{URL: "https://example.com/a", ChangeFreq: models.ChangeWeekly, Priority: 0.8, LastModified: &mod},
	}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Less(t, strings.Index(out, "/b<"), strings.Index(out, "/a<"))
	assert.Contains(t, out, "<lastmod>2024-05-01T08:30:00.000Z</lastmod>")
	assert.Equal(t, 1, strings.Count(out, "<lastmod>"))
}

func TestWriteEscapesLoc(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{}.Write([]models.SitemapEntry{{URL: "https://example.com/a?b=1&c=2"}}, &buf))
	assert.Contains(t, buf.String(), "<loc>https://example.com/a?b=1&amp;c=2</loc>")
}

func TestFormatPriority(t *testing.T) {
	cases := map[float64]string{1: "1.0", 0: "0.0", 0.5: "0.5", 0.85: "0.85", 0.1: "0.1"}
	for in, want := range cases {
		assert.Equal(t, want, FormatPriority(in))
	}
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("disk full")
	}
	f.after -= len(p)
	return len(p), nil
}

func TestWriteSinkFailure(t *testing.T) {
	entries := make([]models.SitemapEntry, 100)
	for i := range entries {
		entries[i] = models.SitemapEntry{URL: "https://example.com/p", ChangeFreq: models.ChangeWeekly, Priority: 0.8}
	}
	err := Writer{}.Write(entries, &failingWriter{after: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSinkFailure))
	assert.True(t, errors.IsFatal(err))
}

func TestWriteSizeLimit(t *testing.T) {
	entries := make([]models.SitemapEntry, 50)
	for i := range entries {
		entries[i] = models.SitemapEntry{URL: "https://example.com/some/long/path", Priority: 0.5}
	}
	var buf bytes.Buffer
	err := Writer{MaxBytes: 512}.Write(entries, &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.True(t, errors.Is(err, errors.ErrSinkFailure))
	assert.LessOrEqual(t, buf.Len(), 512)
}

func TestWriteIndex(t *testing.T) {
	var buf bytes.Buffer
	err := Writer{}.WriteIndex([]models.SitemapRef{
		{Loc: "https://example.com/sitemap-1.xml", LastMod: "2024-01-01T00:00:00.000Z"},
		{Loc: "https://example.com/sitemap-2.xml"},
	}, &buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, out, "<sitemap><loc>https://example.com/sitemap-1.xml</loc><lastmod>2024-01-01T00:00:00.000Z</lastmod></sitemap>")
	assert.Contains(t, out, "<sitemap><loc>https://example.com/sitemap-2.xml</loc></sitemap>")
}
