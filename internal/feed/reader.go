package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/routes"
)

// Document is a decoded sitemap file: a urlset or a sitemap index.
type Document struct {
	URLs     []models.URL
	Sitemaps []models.SitemapRef
	Index    bool
}

// Read decodes a <urlset> or <sitemapindex> from r.
func Read(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("no sitemap root element")
		}
		if err != nil {
			return nil, errors.Wrap(err, "decode sitemap")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "urlset":
			var set models.Sitemap
			if err := dec.DecodeElement(&set, &start); err != nil {
				return nil, errors.Wrap(err, "decode urlset")
			}
			return &Document{URLs: set.URLs}, nil
		case "sitemapindex":
			var idx models.SitemapIndex
			if err := dec.DecodeElement(&idx, &start); err != nil {
				return nil, errors.Wrap(err, "decode sitemapindex")
			}
			return &Document{Sitemaps: idx.Sitemaps, Index: true}, nil
		default:
			return nil, errors.Newf("unexpected root element <%s>", start.Name.Local)
		}
	}
}

// Open reads a feed from a local path or an http(s) URL.
func Open(ctx context.Context, client *http.Client, location string) (*Document, error) {
	if isRemote(location) {
		return fetch(ctx, client, location)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", location)
	}
	defer f.Close()
	return Read(f)
}

func fetch(ctx context.Context, client *http.Client, url string) (*Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetch %s: %s", url, resp.Status)
	}
	return Read(resp.Body)
}

func isRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Problem is one violation found by Verify.
type Problem struct {
	Loc    string
	Reason string
}

func (p Problem) String() string { return fmt.Sprintf("%s: %s", p.Loc, p.Reason) }

// Verify checks every entry of doc: loc equals its own normalization and is
// unique, lastmod parses, changefreq is a protocol value and priority lies
// in [0.0, 1.0]. Index documents only have their locs checked.
func Verify(doc *Document, n *routes.Normalizer) []Problem {
	var problems []Problem
	seen := make(map[string]bool)
	checkLoc := func(loc string) {
		switch {
		case loc == "":
			problems = append(problems, Problem{Loc: loc, Reason: "empty loc"})
			return
		case n.URL(loc) != loc:
			problems = append(problems, Problem{Loc: loc, Reason: "loc is not normalized (want " + n.URL(loc) + ")"})
		}
		if seen[loc] {
			problems = append(problems, Problem{Loc: loc, Reason: "duplicate loc"})
		}
		seen[loc] = true
	}

	for _, s := range doc.Sitemaps {
		checkLoc(s.Loc)
		if s.LastMod != "" {
			if _, ok := routes.ParseDate(s.LastMod); !ok {
				problems = append(problems, Problem{Loc: s.Loc, Reason: "invalid lastmod " + strconv.Quote(s.LastMod)})
			}
		}
	}
	for _, u := range doc.URLs {
		checkLoc(u.Loc)
		if u.LastMod != "" {
			if _, ok := routes.ParseDate(u.LastMod); !ok {
				problems = append(problems, Problem{Loc: u.Loc, Reason: "invalid lastmod " + strconv.Quote(u.LastMod)})
			}
		}
		if u.ChangeFreq != "" {
			if cf, ok := models.ParseChangeFreq(u.ChangeFreq); !ok || string(cf) != u.ChangeFreq {
				problems = append(problems, Problem{Loc: u.Loc, Reason: "unknown changefreq " + strconv.Quote(u.ChangeFreq)})
			}
		}
		if u.Priority != "" {
			p, err := strconv.ParseFloat(u.Priority, 64)
			if err != nil || p < 0 || p > 1 {
				problems = append(problems, Problem{Loc: u.Loc, Reason: "priority out of range " + strconv.Quote(u.Priority)})
			}
		}
	}
	return problems
}

// PartLocation resolves the file a sitemap index entry refers to, relative
// to the index location. Remote indexes keep the part URL as is; local ones
// look for the part next to the index file.
func PartLocation(indexLocation, partLoc string) string {
	if isRemote(indexLocation) {
		return partLoc
	}
	return filepath.Join(filepath.Dir(indexLocation), path.Base(partLoc))
}
