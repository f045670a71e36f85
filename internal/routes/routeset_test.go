package routes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/romangod6/sitemapgen/internal/models"
)

func TestRouteSetDynamicWinsOverStatic(t *testing.T) {
	s := NewRouteSet()
	assert.Equal(t, Added, s.Add(models.SitemapEntry{URL: "https://x.com/", Class: models.ClassHome, Priority: 1}))
	assert.Equal(t, Added, s.Add(models.SitemapEntry{URL: "https://x.com/about", Class: models.ClassStatic}))

	now := time.Now()
	assert.Equal(t, Replaced, s.Add(models.SitemapEntry{URL: "https://x.com/about", Class: models.ClassDynamic, LastModified: &now}))

	e, ok := s.Get("https://x.com/about")
	assert.True(t, ok)
	assert.Equal(t, models.ClassDynamic, e.Class)
	// replaced in place
	assert.Equal(t, "https://x.com/about", s.Entries()[1].URL)
	assert.Equal(t, 2, s.Len())
}

func TestRouteSetFirstSeenWins(t *testing.T) {
	s := NewRouteSet()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Add(models.SitemapEntry{URL: "https://x.com/p", Class: models.ClassDynamic, LastModified: &first})
	assert.Equal(t, Duplicate, s.Add(models.SitemapEntry{URL: "https://x.com/p", Class: models.ClassDynamic, LastModified: &second}))
	assert.Equal(t, Duplicate, s.Add(models.SitemapEntry{URL: "https://x.com/p", Class: models.ClassStatic}))

	e, _ := s.Get("https://x.com/p")
	assert.Equal(t, first, *e.LastModified)
}

func TestRouteSetByPriorityIsStable(t *testing.T) {
	s := NewRouteSet()
	s.Add(models.SitemapEntry{URL: "a", Priority: 0.5})
	s.Add(models.SitemapEntry{URL: "b", Priority: 1})
	s.Add(models.SitemapEntry{URL: "c", Priority: 0.5})
	s.Add(models.SitemapEntry{URL: "d", Priority: 0.8})

	var got []string
	for _, e := range s.ByPriority() {
		got = append(got, e.URL)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
	assert.Equal(t, "a", s.Entries()[0].URL)
}
