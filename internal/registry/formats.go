package registry

import (
	"bufio"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/romangod6/sitemapgen/internal/errors"
)

var routeDecl = regexp.MustCompile(`<Route\s+(?:[^>]*?\s)?path\s*=\s*\{?\s*["']([^"']+)["']`)

func jsxCandidates(text string) []string {
	var out []string
	for _, m := range routeDecl.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

func textCandidates(text string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// yamlCandidates accepts a bare list or a mapping with a routes key; items
// are strings or {path: ...} mappings.
func yamlCandidates(text string) ([]string, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errors.Wrap(err, "parse yaml registry")
	}
	var items []any
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		list, ok := v["routes"].([]any)
		if !ok {
			return nil, errors.New("yaml registry has no routes list")
		}
		items = list
	default:
		return nil, errors.Newf("yaml registry must be a list or a mapping, got %T", doc)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if p, ok := v["path"].(string); ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// htmlCandidates collects site-relative anchors of a navigation page.
func htmlCandidates(text string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, errors.Wrap(err, "parse html registry")
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
			return
		}
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			href = href[:i]
		}
		out = append(out, href)
	})
	return out, nil
}

var pageExts = map[string]bool{".tsx": true, ".jsx": true, ".ts": true, ".js": true, ".mdx": true, ".md": true}

// pagesCandidates maps a file-system routed pages directory onto paths.
// Dynamic segments ([id].tsx) come out parameterized and are rejected by
// Accept.
func pagesCandidates(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "api" || strings.HasPrefix(d.Name(), "_") && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		if !pageExts[ext] || strings.HasPrefix(d.Name(), "_") || strings.HasSuffix(d.Name(), ".d.ts") {
			return nil
		}
		route := "/" + strings.TrimSuffix(rel, ext)
		if route == "/index" {
			route = "/"
		} else {
			route = strings.TrimSuffix(route, "/index")
		}
		out = append(out, route)
		return nil
	})
	return out, err
}
