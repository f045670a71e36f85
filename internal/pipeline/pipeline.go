// Package pipeline runs one sitemap generation: registry scan, concurrent
// content source reads, normalization and filtering, merge, and the atomic
// feed write.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/feed"
	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/registry"
	"github.com/romangod6/sitemapgen/internal/routes"
	"github.com/romangod6/sitemapgen/internal/storage"
)

// Summary reports one run.
type Summary struct {
	RunID         string
	StaticRoutes  int
	RecordsRead   int
	Dropped       map[string]int
	FailedSources []string
	Entries       int
	Files         []string
	Duration      time.Duration
}

// Generator holds everything a run needs. It is safe to call Run again
// once the previous call returned.
type Generator struct {
	cfg           *config.Config
	sources       []storage.Source
	scanner       *registry.Scanner
	norm          *routes.Normalizer
	exclusions    *routes.Exclusions
	informational map[string]bool
	overrides     map[string]config.Override
	log           *zap.SugaredLogger
	rec           *metrics.Recorder
	now           func() time.Time
}

// New validates cfg and prepares a Generator. sources are read in the order
// given; rec may be nil.
func New(cfg *config.Config, sources []storage.Source, scanner *registry.Scanner, log *zap.SugaredLogger, rec *metrics.Recorder) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	norm, err := routes.NewNormalizer(cfg.Site.BaseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if scanner == nil {
		scanner = registry.NewScanner(log.Named("registry"))
	}

	g := &Generator{
		cfg:           cfg,
		sources:       sources,
		scanner:       scanner,
		norm:          norm,
		exclusions:    routes.NewExclusions(cfg.Exclude),
		informational: make(map[string]bool),
		overrides:     make(map[string]config.Override),
		log:           log,
		rec:           rec,
		now:           time.Now,
	}
	for _, p := range cfg.Feed.Informational.Paths {
		g.informational[norm.Path(p)] = true
	}
	for _, o := range cfg.Feed.Overrides {
		g.overrides[norm.Path(o.Path)] = o
	}
	return g, nil
}

// Run generates the feed. Unreadable registries and sources are logged and
// skipped; an empty result, a sink failure or a cancelled context fail the
// run and leave the previous feed in place.
func (g *Generator) Run(ctx context.Context) (sum *Summary, err error) {
	start := g.now()
	sum = &Summary{RunID: uuid.NewString(), Dropped: make(map[string]int)}
	log := g.log.With("run_id", sum.RunID)

	defer func() {
		sum.Duration = g.now().Sub(start)
		for reason, n := range sum.Dropped {
			g.rec.AddDropped(reason, n)
		}
		g.rec.ObserveRun(sum.Duration, err == nil)
		if werr := g.rec.WriteTextfile(g.cfg.Metrics.Textfile); werr != nil {
			log.Warnw("Failed to write metrics textfile", "error", werr)
		}
	}()

	log.Infow("Starting sitemap generation", "base_url", g.norm.Base(), "sources", len(g.sources))
	set := routes.NewRouteSet()

	statics := g.staticRoutes()
	sum.StaticRoutes = len(statics)
	for _, r := range statics {
		path := g.norm.Path(r.Path)
		if g.exclusions.Excluded(path) {
			sum.Dropped[metrics.DropExcluded]++
			continue
		}
		e := g.entry(path, g.staticClass(path))
		e.URL = g.norm.URL(path)
		if set.Add(e) == routes.Duplicate {
			sum.Dropped[metrics.DropDuplicate]++
		}
	}

	for i, res := range g.fetchAll(ctx, log) {
		src := g.sources[i]
		if res.err != nil {
			log.Warnw("Content source unavailable, continuing without it", "source", src.Name(), "error", res.err)
			sum.FailedSources = append(sum.FailedSources, src.Name())
			g.rec.IncSourceFailure(src.Name())
		}
		sum.RecordsRead += len(res.records)
		for _, rec := range res.records {
			g.addRecord(set, src, rec, sum, log)
		}
	}
	if err := ctx.Err(); err != nil {
		return sum, errors.Wrap(err, "generation cancelled")
	}

	if set.Len() == 0 {
		return sum, errors.Wrapf(errors.ErrEmptyFeed, "no routes survived for %s, keeping the previous feed", g.norm.Base())
	}

	entries := set.Entries()
	if g.cfg.Feed.Order == config.OrderPriority {
		entries = set.ByPriority()
	}

	indexBase := g.cfg.Feed.IndexBaseURL
	if indexBase == "" {
		indexBase = g.norm.Base()
	}
	written, err := feed.WriteFile(g.cfg.Feed.Output, entries, feed.FileOptions{
		MaxURLs:      g.cfg.Feed.MaxURLsPerFile,
		IndexBaseURL: indexBase,
		Now:          g.now,
	})
	if err != nil {
		return sum, err
	}
	sum.Entries = len(entries)
	sum.Files = written.Files

	counts := make(map[models.RouteClass]int)
	for _, e := range entries {
		counts[e.Class]++
	}
	for _, class := range []models.RouteClass{models.ClassHome, models.ClassStatic, models.ClassInformational, models.ClassDynamic} {
		g.rec.SetRoutes(string(class), counts[class])
	}

	log.Infow("Sitemap written",
		"output", g.cfg.Feed.Output,
		"entries", sum.Entries,
		"static", sum.StaticRoutes,
		"records", sum.RecordsRead,
		"failed_sources", len(sum.FailedSources),
		"files", len(sum.Files))
	return sum, nil
}

func (g *Generator) staticRoutes() []models.StaticRoute {
	format, _ := registry.ParseFormat(g.cfg.Registry.Format)
	found := g.scanner.ScanPath(g.cfg.Registry.Path, format)
	return append(found, registry.Accept(g.cfg.Registry.ExtraRoutes)...)
}

func (g *Generator) addRecord(set *routes.RouteSet, src storage.Source, rec models.ContentRecord, sum *Summary, log *zap.SugaredLogger) {
	u := g.norm.URL(g.norm.Join(src.PathPrefix(rec.Collection), rec.CanonicalURL))
	if !g.cfg.Feed.AllowExternal && !g.norm.Internal(u) {
		log.Warnw("Skipping record outside the site", "source", rec.Source, "collection", rec.Collection, "url", u)
		sum.Dropped[metrics.DropExternal]++
		return
	}
	path := g.norm.PathOf(u)
	if g.exclusions.Excluded(path) {
		sum.Dropped[metrics.DropExcluded]++
		return
	}
	ts, err := routes.ResolveTimestamp(rec)
	if err != nil {
		log.Warnw("Skipping record with invalid date",
			"source", rec.Source, "collection", rec.Collection, "url", g.norm.Relative(u), "error", err)
		sum.Dropped[metrics.DropInvalidDate]++
		return
	}

	e := g.entry(path, models.ClassDynamic)
	e.URL = u
	e.LastModified = &ts
	if set.Add(e) == routes.Duplicate {
		sum.Dropped[metrics.DropDuplicate]++
	}
}

func (g *Generator) staticClass(path string) models.RouteClass {
	switch {
	case path == "/":
		return models.ClassHome
	case g.informational[path]:
		return models.ClassInformational
	}
	return models.ClassStatic
}

// entry applies the class defaults and any override for path.
func (g *Generator) entry(path string, class models.RouteClass) models.SitemapEntry {
	var d config.ClassDefaults
	switch class {
	case models.ClassHome:
		d = g.cfg.Feed.Home
	case models.ClassInformational:
		d = g.cfg.Feed.Informational.ClassDefaults
	case models.ClassDynamic:
		d = g.cfg.Feed.Dynamic
	default:
		d = g.cfg.Feed.Static
	}
	cf, _ := models.ParseChangeFreq(d.ChangeFreq)
	e := models.SitemapEntry{ChangeFreq: cf, Priority: d.Priority, Class: class}

	if o, ok := g.overrides[path]; ok {
		if o.ChangeFreq != "" {
			e.ChangeFreq, _ = models.ParseChangeFreq(o.ChangeFreq)
		}
		if o.Priority != nil {
			e.Priority = *o.Priority
		}
	}
	return e
}

type fetchResult struct {
	records []models.ContentRecord
	err     error
}

// fetchAll reads every source, at most sources.max_concurrent at a time.
// Results are slotted by source index so merge order never depends on
// which source answered first.
func (g *Generator) fetchAll(ctx context.Context, log *zap.SugaredLogger) []fetchResult {
	results := make([]fetchResult, len(g.sources))
	limit := g.cfg.Sources.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	semaphore := make(chan struct{}, limit)
	var wg sync.WaitGroup

	storageLog := log.Named("storage")
	for i, src := range g.sources {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, src storage.Source) {
			defer wg.Done()
			defer func() { <-semaphore }()

			records, err := storage.Fetch(ctx, src, storageLog)
			results[i] = fetchResult{records: records, err: err}
		}(i, src)
	}
	wg.Wait()
	return results
}
