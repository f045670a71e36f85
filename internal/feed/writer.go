// Package feed streams sitemap entries into sitemap protocol documents.
package feed

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/routes"
)

// Protocol limits of a single sitemap file.
const (
	MaxURLsPerFile  = 50000
	MaxBytesPerFile = 50 * 1024 * 1024
)

// ErrTooLarge marks a sitemap file over MaxBytesPerFile.
var ErrTooLarge = errors.New("sitemap exceeds the 50MiB size limit")

// Writer encodes entries as a <urlset>.
type Writer struct {
	// MaxBytes caps the encoded size; zero means MaxBytesPerFile.
	MaxBytes int64
}

// Write streams entries to sink in the order given and closes the encoder.
// Any error of the sink is returned as ErrSinkFailure.
func (w Writer) Write(entries []models.SitemapEntry, sink io.Writer) error {
	limit := w.MaxBytes
	if limit <= 0 {
		limit = MaxBytesPerFile
	}
	cw := &countingWriter{w: sink, limit: limit}

	if _, err := io.WriteString(cw, xml.Header); err != nil {
		return sinkErr(err, "write xml header")
	}
	enc := xml.NewEncoder(cw)
	start := xml.StartElement{
		Name: xml.Name{Local: "urlset"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: models.SitemapNamespace}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return sinkErr(err, "open urlset")
	}
	for _, e := range entries {
		if err := enc.Encode(toURL(e)); err != nil {
			return sinkErr(err, "write url "+e.URL)
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return sinkErr(err, "close urlset")
	}
	if err := enc.Close(); err != nil {
		return sinkErr(err, "flush feed")
	}
	if _, err := io.WriteString(cw, "\n"); err != nil {
		return sinkErr(err, "write trailer")
	}
	return nil
}

// WriteIndex encodes a <sitemapindex> of the given parts.
func (w Writer) WriteIndex(refs []models.SitemapRef, sink io.Writer) error {
	if _, err := io.WriteString(sink, xml.Header); err != nil {
		return sinkErr(err, "write xml header")
	}
	enc := xml.NewEncoder(sink)
	start := xml.StartElement{
		Name: xml.Name{Local: "sitemapindex"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: models.SitemapNamespace}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return sinkErr(err, "open sitemapindex")
	}
	for _, ref := range refs {
		if err := enc.Encode(ref); err != nil {
			return sinkErr(err, "write sitemap "+ref.Loc)
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return sinkErr(err, "close sitemapindex")
	}
	if err := enc.Close(); err != nil {
		return sinkErr(err, "flush index")
	}
	if _, err := io.WriteString(sink, "\n"); err != nil {
		return sinkErr(err, "write trailer")
	}
	return nil
}

func toURL(e models.SitemapEntry) models.URL {
	u := models.URL{
		Loc:        e.URL,
		ChangeFreq: string(e.ChangeFreq),
		Priority:   FormatPriority(e.Priority),
	}
	if e.LastModified != nil {
		u.LastMod = routes.FormatLastMod(*e.LastModified)
	}
	return u
}

// FormatPriority renders a priority with at least one decimal: 1 → "1.0",
// 0.85 → "0.85".
func FormatPriority(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func sinkErr(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), errors.ErrSinkFailure)
}

type countingWriter struct {
	w     io.Writer
	n     int64
	limit int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.n+int64(len(p)) > c.limit {
		return 0, ErrTooLarge
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
