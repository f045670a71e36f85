// Package routes turns registry paths and content records into the
// normalized, filtered and deduplicated entries of a feed.
package routes

import (
	"net/url"
	"strings"

	"github.com/romangod6/sitemapgen/internal/errors"
)

// Normalizer maps paths and canonical URLs onto absolute, lower-cased URLs
// under the site base. All of its methods are idempotent.
type Normalizer struct {
	base string // scheme://host[/path], lower-cased, no trailing slash
}

// NewNormalizer validates baseURL; it must be an absolute http(s) URL.
func NewNormalizer(baseURL string) (*Normalizer, error) {
	raw := strings.ToLower(strings.TrimSpace(baseURL))
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrConfigurationMissing, "base url %q is not an absolute http(s) url", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, errors.Wrapf(errors.ErrConfigurationMissing, "base url %q must not carry a query or fragment", baseURL)
	}
	return &Normalizer{base: strings.TrimRight(raw, "/")}, nil
}

// Base returns the normalized base URL.
func (n *Normalizer) Base() string { return n.base }

// Path normalizes a static route path: trimmed, lower-cased, leading slash.
func (n *Normalizer) Path(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// URL normalizes a canonical URL. URLs under the base are rebuilt from
// their path, other absolute URLs are kept, anything else is a site
// path and gets the base prefixed.
func (n *Normalizer) URL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if rest, ok := n.trimBase(s); ok {
		return n.base + n.Path(rest)
	}
	if isAbsolute(s) {
		return s
	}
	return n.base + n.Path(s)
}

// Join applies a collection prefix to a bare relative canonical URL such as
// "my-post". Absolute URLs and site-rooted paths are returned unchanged.
func (n *Normalizer) Join(prefix, canonical string) string {
	c := strings.TrimSpace(canonical)
	if prefix == "" || c == "" || strings.HasPrefix(c, "/") || isAbsolute(strings.ToLower(c)) {
		return c
	}
	if _, ok := n.trimBase(strings.ToLower(c)); ok {
		return c
	}
	return strings.TrimRight(prefix, "/") + "/" + c
}

// Internal reports whether u (normalized) lives under the site base.
func (n *Normalizer) Internal(u string) bool {
	_, ok := n.trimBase(u)
	return ok
}

// PathOf returns the path component of a normalized URL without query or
// fragment. For URLs under the base the base path is stripped as well.
func (n *Normalizer) PathOf(u string) string {
	if rest, ok := n.trimBase(u); ok {
		return stripQuery(n.Path(rest))
	}
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		return n.Path(parsed.EscapedPath())
	}
	return stripQuery(n.Path(u))
}

// Relative is the site-relative form of a normalized URL, used by log lines.
func (n *Normalizer) Relative(u string) string {
	if rest, ok := n.trimBase(u); ok {
		return n.Path(rest)
	}
	return u
}

func (n *Normalizer) trimBase(s string) (string, bool) {
	if !strings.HasPrefix(s, n.base) {
		return "", false
	}
	rest := s[len(n.base):]
	if rest == "" || rest[0] == '/' || rest[0] == '?' || rest[0] == '#' {
		return rest, true
	}
	// https://example.comfoo is a different host
	return "", false
}

func isAbsolute(s string) bool {
	if strings.HasPrefix(s, "//") {
		return true
	}
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for _, r := range s[:i] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func stripQuery(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	return p
}
