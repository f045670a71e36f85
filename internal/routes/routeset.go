package routes

import (
	"sort"

	"github.com/romangod6/sitemapgen/internal/models"
)

// AddResult tells the caller what RouteSet.Add did with an entry.
type AddResult int

const (
	Added AddResult = iota
	Replaced
	Duplicate
)

// RouteSet is an insertion-ordered map from normalized URL to entry.
//
// Collisions: a dynamic entry replaces a static one in place; otherwise
// the first entry seen for a URL is kept.
type RouteSet struct {
	index   map[string]int
	entries []models.SitemapEntry
}

func NewRouteSet() *RouteSet {
	return &RouteSet{index: make(map[string]int)}
}

func (s *RouteSet) Add(e models.SitemapEntry) AddResult {
	i, ok := s.index[e.URL]
	if !ok {
		s.index[e.URL] = len(s.entries)
		s.entries = append(s.entries, e)
		return Added
	}
	if e.Class.Dynamic() && !s.entries[i].Class.Dynamic() {
		s.entries[i] = e
		return Replaced
	}
	return Duplicate
}

func (s *RouteSet) Get(url string) (models.SitemapEntry, bool) {
	i, ok := s.index[url]
	if !ok {
		return models.SitemapEntry{}, false
	}
	return s.entries[i], true
}

func (s *RouteSet) Len() int { return len(s.entries) }

// Entries returns a copy of the entries in insertion order.
func (s *RouteSet) Entries() []models.SitemapEntry {
	out := make([]models.SitemapEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ByPriority returns the entries stable-sorted by descending priority.
func (s *RouteSet) ByPriority() []models.SitemapEntry {
	out := s.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
