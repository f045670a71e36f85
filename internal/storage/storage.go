package storage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
)

// Source is a content store that can list records per collection.
type Source interface {
	Name() string
	Collections() []string
	// PathPrefix is the URL path owning a collection. It applies only to
	// canonical URLs that are relative without a leading slash.
	PathPrefix(collection string) string
	// Open acquires the connection used by one generation run.
	Open(ctx context.Context) (Lister, error)
}

// Lister is an open connection to a Source.
type Lister interface {
	List(ctx context.Context, collection string) ([]models.ContentRecord, error)
	Close() error
}

// FieldMap names the record fields holding the canonical URL and dates.
type FieldMap struct {
	URL       string `mapstructure:"url"`
	Published string `mapstructure:"published"`
	Modified  string `mapstructure:"modified"`
}

// DocumentFields are the field names used by documents and flat files.
var DocumentFields = FieldMap{URL: "canonicalUrl", Published: "datePublished", Modified: "dateModified"}

// ColumnFields are the column names used by SQL content tables.
var ColumnFields = FieldMap{URL: "canonical_url", Published: "date_published", Modified: "date_modified"}

// WithDefaults fills empty names from def.
func (f FieldMap) WithDefaults(def FieldMap) FieldMap {
	if f.URL == "" {
		f.URL = def.URL
	}
	if f.Published == "" {
		f.Published = def.Published
	}
	if f.Modified == "" {
		f.Modified = def.Modified
	}
	return f
}

// Prefixes is a static collection → URL path prefix table. Keys are matched
// case-insensitively.
type Prefixes map[string]string

func (p Prefixes) For(collection string) string {
	if len(p) == 0 {
		return ""
	}
	if v, ok := p[collection]; ok {
		return v
	}
	return p[strings.ToLower(collection)]
}

// Fetch lists every collection of src over one connection, which is closed
// before Fetch returns. A collection that fails is logged and skipped;
// records without a canonical URL or publication date are dropped with a
// warning. An Open failure is ErrSourceUnavailable.
func Fetch(ctx context.Context, src Source, log *zap.SugaredLogger) (records []models.ContentRecord, err error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("source", src.Name())

	lister, err := src.Open(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open source %s", src.Name()), errors.ErrSourceUnavailable)
	}
	defer func() {
		if cerr := lister.Close(); cerr != nil {
			log.Warnw("Failed to release source connection", "error", cerr)
		}
	}()

	for _, collection := range src.Collections() {
		if err := ctx.Err(); err != nil {
			return records, errors.Mark(err, errors.ErrSourceUnavailable)
		}
		listed, err := lister.List(ctx, collection)
		if err != nil {
			log.Warnw("Skipping collection", "collection", collection, "error", err)
			continue
		}

		kept := 0
		for _, r := range listed {
			r.Source = src.Name()
			r.Collection = collection
			if !r.Complete() {
				log.Warnw("Skipping record missing canonical URL or publication date",
					"collection", collection, "canonicalUrl", r.CanonicalURL, "datePublished", r.PublishedAt)
				continue
			}
			records = append(records, r)
			kept++
		}
		log.Infow("Listed collection", "collection", collection, "records", len(listed), "kept", kept)
	}
	return records, nil
}
