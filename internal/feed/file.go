package feed

import (
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/routes"
)

// FileOptions controls WriteFile.
type FileOptions struct {
	// MaxURLs per sitemap file; zero or anything above the protocol
	// maximum means MaxURLsPerFile.
	MaxURLs  int
	MaxBytes int64
	// IndexBaseURL prefixes part file names in a sitemap index.
	IndexBaseURL string
	Now          func() time.Time
}

// Result describes what WriteFile put on disk.
type Result struct {
	Files   []string
	Entries int
	Index   bool
}

// WriteFile writes entries to path. Every file is first streamed into a
// temporary file in the same directory; only when all of them were closed
// cleanly are they renamed over their targets, parts before the index, so a
// failed run leaves the previous feed in place. Above MaxURLs entries the
// feed is split into <name>-<n><ext> parts and path becomes a sitemap index.
// Parts named by the previous index and not rewritten are removed.
func WriteFile(path string, entries []models.SitemapEntry, opts FileOptions) (*Result, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrConfigurationMissing, "no output path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create output directory %s", dir), errors.ErrSinkFailure)
	}

	maxURLs := opts.MaxURLs
	if maxURLs <= 0 || maxURLs > MaxURLsPerFile {
		maxURLs = MaxURLsPerFile
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	w := Writer{MaxBytes: opts.MaxBytes}
	previous := previousParts(path)

	var st staging
	defer st.discard()

	res := &Result{Entries: len(entries)}
	if len(entries) <= maxURLs {
		if err := st.stage(path, func(f io.Writer) error { return w.Write(entries, f) }); err != nil {
			return nil, err
		}
	} else {
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(filepath.Base(path), ext)
		base := strings.TrimRight(opts.IndexBaseURL, "/")

		var refs []models.SitemapRef
		for i := 0; i*maxURLs < len(entries); i++ {
			end := min((i+1)*maxURLs, len(entries))
			chunk := entries[i*maxURLs : end]
			name := fmt.Sprintf("%s-%d%s", stem, i+1, ext)
			if err := st.stage(filepath.Join(dir, name), func(f io.Writer) error { return w.Write(chunk, f) }); err != nil {
				return nil, err
			}
			refs = append(refs, models.SitemapRef{Loc: base + "/" + name, LastMod: latestLastMod(chunk, now)})
		}
		if err := st.stage(path, func(f io.Writer) error { return w.WriteIndex(refs, f) }); err != nil {
			return nil, err
		}
		res.Index = true
	}

	if err := st.commit(); err != nil {
		return nil, err
	}
	res.Files = st.targets()

	written := make(map[string]bool, len(res.Files))
	for _, f := range res.Files {
		written[f] = true
	}
	for _, old := range previous {
		if !written[old] {
			os.Remove(old)
		}
	}
	return res, nil
}

type stagedFile struct {
	tmp    string
	target string
	done   bool
}

// staging collects finished temporary files until all of a feed is ready.
type staging struct {
	files []stagedFile
}

// stage streams write into a temporary file next to target, then syncs and
// closes it.
func (s *staging) stage(target string, write func(io.Writer) error) (err error) {
	dir, name := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "create temporary file for %s", target), errors.ErrSinkFailure)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return errors.Mark(errors.Wrapf(err, "sync %s", tmp.Name()), errors.ErrSinkFailure)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return errors.Mark(errors.Wrapf(err, "chmod %s", tmp.Name()), errors.ErrSinkFailure)
	}
	if err = tmp.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "close %s", tmp.Name()), errors.ErrSinkFailure)
	}
	s.files = append(s.files, stagedFile{tmp: tmp.Name(), target: target})
	return nil
}

// commit renames every staged file over its target in staging order.
func (s *staging) commit() error {
	for i := range s.files {
		f := &s.files[i]
		if err := atomic.ReplaceFile(f.tmp, f.target); err != nil {
			return errors.Mark(errors.Wrapf(err, "replace %s", f.target), errors.ErrSinkFailure)
		}
		f.done = true
	}
	return nil
}

// discard removes temporary files that were never committed.
func (s *staging) discard() {
	for _, f := range s.files {
		if !f.done {
			os.Remove(f.tmp)
		}
	}
}

func (s *staging) targets() []string {
	out := make([]string, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f.target)
	}
	return out
}

func latestLastMod(entries []models.SitemapEntry, now func() time.Time) string {
	var latest time.Time
	for _, e := range entries {
		if e.LastModified != nil && e.LastModified.After(latest) {
			latest = *e.LastModified
		}
	}
	if latest.IsZero() {
		latest = now()
	}
	return routes.FormatLastMod(latest)
}

// previousParts lists the local part files the sitemap index at path
// currently points to. Only names of the form <name>-<n><ext> next to path
// are returned; anything else is not ours to remove.
func previousParts(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	doc, err := Read(f)
	if err != nil || !doc.Index {
		return nil
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	var parts []string
	for _, ref := range doc.Sitemaps {
		name := pathpkg.Base(ref.Loc)
		if !strings.HasPrefix(name, stem+"-") || !strings.HasSuffix(name, ext) {
			continue
		}
		n := strings.TrimSuffix(strings.TrimPrefix(name, stem+"-"), ext)
		if _, err := strconv.Atoi(n); err != nil {
			continue
		}
		parts = append(parts, filepath.Join(dir, name))
	}
	return parts
}
