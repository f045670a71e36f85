package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/romangod6/sitemapgen/internal/models"
)

// recordFrom projects a decoded document or JSON object onto a record.
func recordFrom(doc map[string]any, fields FieldMap) models.ContentRecord {
	return models.ContentRecord{
		CanonicalURL: stringValue(doc[fields.URL]),
		PublishedAt:  stringValue(doc[fields.Published]),
		ModifiedAt:   stringValue(doc[fields.Modified]),
	}
}

// stringValue renders scalar values as strings; dates become RFC3339.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int32, int64:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}
	// objects and arrays cannot be a URL or a date
	return ""
}
