// Package registry extracts static page paths from a route registry.
//
// A registry is any declarative list of routes: a component file with
// <Route path="..."> declarations, a YAML or plain-text manifest, a rendered
// navigation page, or a file-system pages directory. Parameterized and
// wildcard routes are never emitted.
package registry

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/romangod6/sitemapgen/internal/models"
)

// Format names a registry syntax.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSX   Format = "jsx"
	FormatYAML  Format = "yaml"
	FormatHTML  Format = "html"
	FormatText  Format = "text"
	FormatPages Format = "pages"
)

// ParseFormat maps a config value onto a Format; "" means auto.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, true
	case FormatAuto, FormatJSX, FormatYAML, FormatHTML, FormatText, FormatPages:
		return f, true
	}
	return "", false
}

// DetectFormat guesses the format from the path. Directories are pages.
func DetectFormat(path string) Format {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FormatPages
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx", ".ts", ".js", ".mjs", ".cjs":
		return FormatJSX
	case ".yaml", ".yml":
		return FormatYAML
	case ".html", ".htm":
		return FormatHTML
	}
	return FormatText
}

// Scanner turns registry text into StaticRoutes.
type Scanner struct {
	log *zap.SugaredLogger
}

func NewScanner(log *zap.SugaredLogger) *Scanner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{log: log}
}

// ScanPath reads the registry at path. A registry that cannot be read is
// logged and yields no routes.
func (s *Scanner) ScanPath(path string, format Format) []models.StaticRoute {
	if path == "" {
		return nil
	}
	if format == "" || format == FormatAuto {
		format = DetectFormat(path)
	}

	var candidates []string
	var err error
	if format == FormatPages {
		candidates, err = pagesCandidates(path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			candidates, err = s.candidates(string(data), format)
		}
	}
	if err != nil {
		s.log.Warnw("Route registry unavailable, continuing without static routes",
			"path", path, "format", format, "error", err)
		return nil
	}

	routes := Accept(candidates)
	s.log.Infow("Scanned route registry",
		"path", path, "format", format, "candidates", len(candidates), "routes", len(routes))
	return routes
}

// Scan extracts routes from registry text.
func (s *Scanner) Scan(text string, format Format) []models.StaticRoute {
	candidates, err := s.candidates(text, format)
	if err != nil {
		s.log.Warnw("Route registry could not be parsed", "format", format, "error", err)
		return nil
	}
	return Accept(candidates)
}

func (s *Scanner) candidates(text string, format Format) ([]string, error) {
	switch format {
	case FormatJSX:
		return jsxCandidates(text), nil
	case FormatYAML:
		return yamlCandidates(text)
	case FormatHTML:
		return htmlCandidates(text)
	default:
		return textCandidates(text), nil
	}
}

// Accept filters candidate paths: parameterized and wildcard paths are
// dropped, the rest lower-cased with a leading slash and deduplicated
// case-insensitively in first-seen order.
func Accept(candidates []string) []models.StaticRoute {
	seen := make(map[string]struct{}, len(candidates))
	routes := make([]models.StaticRoute, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || Parameterized(c) {
			continue
		}
		p := strings.ToLower(c)
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		routes = append(routes, models.StaticRoute{Path: p})
	}
	return routes
}

// Parameterized reports whether a path holds a wildcard or a placeholder
// token (:id, [id], {id}).
func Parameterized(p string) bool {
	return strings.ContainsAny(p, "*:[]{}")
}
