package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
)

// ErrNotArray marks a flat record file whose top-level value is not an array.
var ErrNotArray = errors.New("flat record file is not a JSON array")

// FlatFileStore reads JSON array files from a directory. Each file is one
// collection, named by its base name without the .json extension.
type FlatFileStore struct {
	name     string
	dir      string
	files    []string
	prefixes Prefixes
	fields   FieldMap
}

type FlatFileOptions struct {
	Name     string
	Dir      string
	Files    []string // empty means every *.json file in Dir
	Prefixes Prefixes
	Fields   FieldMap
}

func NewFlatFileStore(opts FlatFileOptions) *FlatFileStore {
	name := opts.Name
	if name == "" {
		name = "files:" + filepath.Base(opts.Dir)
	}
	files := make([]string, 0, len(opts.Files))
	for _, f := range opts.Files {
		files = append(files, strings.TrimSuffix(f, ".json"))
	}
	return &FlatFileStore{
		name:     name,
		dir:      opts.Dir,
		files:    files,
		prefixes: opts.Prefixes,
		fields:   opts.Fields.WithDefaults(DocumentFields),
	}
}

func (s *FlatFileStore) Name() string { return s.name }

// Collections lists the configured files, or the directory's *.json files
// in lexical order when none were configured. An unreadable directory
// yields no collections; Open reports it.
func (s *FlatFileStore) Collections() []string {
	if len(s.files) > 0 {
		return s.files
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(out)
	return out
}

func (s *FlatFileStore) PathPrefix(collection string) string {
	return s.prefixes.For(collection)
}

func (s *FlatFileStore) Open(ctx context.Context) (Lister, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "data directory %s", s.dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("data directory %s is not a directory", s.dir)
	}
	return &flatFileLister{store: s}, nil
}

type flatFileLister struct {
	store *FlatFileStore
}

func (l *flatFileLister) List(ctx context.Context, collection string) ([]models.ContentRecord, error) {
	path := filepath.Join(l.store.dir, collection+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.Wrapf(ErrNotArray, "%s", path)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	records := make([]models.ContentRecord, 0, len(items))
	for _, raw := range items {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			// not an object; surfaces as an incomplete record
			records = append(records, models.ContentRecord{})
			continue
		}
		records = append(records, recordFrom(obj, l.store.fields))
	}
	return records, nil
}

func (l *flatFileLister) Close() error { return nil }
