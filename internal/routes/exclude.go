package routes

import "strings"

// Exclusions is the configured set of paths that never reach the feed.
// Matching is exact on the path component and ignores case.
type Exclusions struct {
	paths map[string]struct{}
}

func NewExclusions(paths []string) *Exclusions {
	ex := &Exclusions{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		ex.paths[p] = struct{}{}
	}
	return ex
}

// Excluded reports whether path matches an excluded route.
func (ex *Exclusions) Excluded(path string) bool {
	if ex == nil || len(ex.paths) == 0 {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(path))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	_, ok := ex.paths[p]
	return ok
}

func (ex *Exclusions) Len() int {
	if ex == nil {
		return 0
	}
	return len(ex.paths)
}
