package routes

import (
	"strings"
	"time"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
)

// LastModLayout is the lastmod format of the feed (W3C datetime, UTC, ms).
const LastModLayout = "2006-01-02T15:04:05.000Z"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ResolveTimestamp picks the effective last-modified time of a record:
// ModifiedAt when it is not blank, PublishedAt otherwise. An unparseable
// value is ErrRecordInvalid; there is no fallback from a bad ModifiedAt to
// PublishedAt.
func ResolveTimestamp(r models.ContentRecord) (time.Time, error) {
	raw := strings.TrimSpace(r.ModifiedAt)
	field := "dateModified"
	if raw == "" {
		raw = strings.TrimSpace(r.PublishedAt)
		field = "datePublished"
	}
	if raw == "" {
		return time.Time{}, errors.Wrap(errors.ErrRecordInvalid, "no publication date")
	}
	t, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, errors.Wrapf(errors.ErrRecordInvalid, "%s %q is not a valid date", field, raw)
	}
	return t, nil
}

// ParseDate parses s against the accepted layouts and returns it in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatLastMod renders t the way the feed stores lastmod values.
func FormatLastMod(t time.Time) string {
	return t.UTC().Format(LastModLayout)
}
