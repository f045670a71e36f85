package models

import (
	"strings"
	"time"
)

// StaticRoute is a path declared in the route registry.
type StaticRoute struct {
	Path string `json:"path" yaml:"path"`
}

// ContentRecord is one row/document/object listed by a content source.
// Source and Collection record where it came from.
type ContentRecord struct {
	CanonicalURL string `json:"canonicalUrl"`
	PublishedAt  string `json:"datePublished"`
	ModifiedAt   string `json:"dateModified,omitempty"`
	Source       string `json:"-"`
	Collection   string `json:"-"`
}

// Complete reports whether the fields every feed entry needs are present.
func (r ContentRecord) Complete() bool {
	return strings.TrimSpace(r.CanonicalURL) != "" && strings.TrimSpace(r.PublishedAt) != ""
}

type ChangeFreq string

const (
	ChangeAlways  ChangeFreq = "always"
	ChangeHourly  ChangeFreq = "hourly"
	ChangeDaily   ChangeFreq = "daily"
	ChangeWeekly  ChangeFreq = "weekly"
	ChangeMonthly ChangeFreq = "monthly"
	ChangeYearly  ChangeFreq = "yearly"
	ChangeNever   ChangeFreq = "never"
)

// ParseChangeFreq accepts the sitemap protocol values, case-insensitively.
func ParseChangeFreq(s string) (ChangeFreq, bool) {
	switch cf := ChangeFreq(strings.ToLower(strings.TrimSpace(s))); cf {
	case ChangeAlways, ChangeHourly, ChangeDaily, ChangeWeekly, ChangeMonthly, ChangeYearly, ChangeNever:
		return cf, true
	}
	return "", false
}

// RouteClass selects the changefreq/priority defaults of an entry.
type RouteClass string

const (
	ClassHome          RouteClass = "home"
	ClassStatic        RouteClass = "static"
	ClassInformational RouteClass = "informational"
	ClassDynamic       RouteClass = "dynamic"
)

// Dynamic reports whether the entry is backed by a content record.
func (c RouteClass) Dynamic() bool { return c == ClassDynamic }

// SitemapEntry is one <url> of the feed. URL is absolute and lower-cased.
type SitemapEntry struct {
	URL          string
	ChangeFreq   ChangeFreq
	Priority     float64
	LastModified *time.Time
	Class        RouteClass
}
