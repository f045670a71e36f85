package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/storage"
)

const sampleConfig = `
env_file: %s
site:
  base_url: https://www.example.com
  name: Example Shop
registry:
  path: src/App.jsx
  extra_routes: [/ads.txt, /rss.xml]
sources:
  max_concurrent: 2
  documents:
    - database: shop
      uri_env: SITEMAPGEN_TEST_MONGO_URI
      collections: [articles, BreakingNews]
      prefixes:
        BreakingNews: /breaking-news
      timeout: 5s
  flat_files:
    - dir: data
  postgres:
    - name: pg
      dsn: postgres://localhost/content
      tables: [public.posts]
      fields:
        url: slug
  sqlite:
    - dsn: content.db
      tables: [pages]
exclude: [/admin, /Checkout]
feed:
  output: out/sitemap.xml
  order: priority
  overrides:
    - path: /ads.txt
      priority: 0.3
    - path: /faq
      changefreq: weekly
log:
  dir: ""
schedule:
  interval: 6h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SITEMAPGEN_TEST_MONGO_URI=mongodb://db:27017\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SITEMAPGEN_TEST_MONGO_URI") })

	cfg, err := LoadConfig(writeConfig(t, fmt.Sprintf(sampleConfig, envFile)))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://www.example.com", cfg.Site.BaseURL)
	assert.Equal(t, "auto", cfg.Registry.Format)
	assert.Equal(t, []string{"/ads.txt", "/rss.xml"}, cfg.Registry.ExtraRoutes)
	assert.Equal(t, 2, cfg.Sources.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Sources.Documents[0].Timeout)
	// viper lower-cases map keys
	assert.Equal(t, "/breaking-news", cfg.Sources.Documents[0].Prefixes["breakingnews"])
	assert.Equal(t, "slug", cfg.Sources.Postgres[0].Fields.URL)
	assert.Equal(t, []string{"/admin", "/Checkout"}, cfg.Exclude)

	assert.Equal(t, "out/sitemap.xml", cfg.Feed.Output)
	assert.Equal(t, OrderPriority, cfg.Feed.Order)
	assert.Equal(t, 50000, cfg.Feed.MaxURLsPerFile)
	assert.Equal(t, "daily", cfg.Feed.Home.ChangeFreq)
	assert.Equal(t, 1.0, cfg.Feed.Home.Priority)
	assert.Equal(t, "monthly", cfg.Feed.Static.ChangeFreq)
	assert.Equal(t, 0.5, cfg.Feed.Static.Priority)
	assert.Equal(t, "yearly", cfg.Feed.Informational.ChangeFreq)
	assert.Equal(t, 0.1, cfg.Feed.Informational.Priority)
	assert.Contains(t, cfg.Feed.Informational.Paths, "/privacy-policy")
	assert.Equal(t, "weekly", cfg.Feed.Dynamic.ChangeFreq)
	assert.Equal(t, 0.8, cfg.Feed.Dynamic.Priority)

	require.Len(t, cfg.Feed.Overrides, 2)
	require.NotNil(t, cfg.Feed.Overrides[0].Priority)
	assert.Equal(t, 0.3, *cfg.Feed.Overrides[0].Priority)
	assert.Nil(t, cfg.Feed.Overrides[1].Priority)

	assert.Equal(t, "", cfg.Log.Dir)
	assert.Equal(t, 6*time.Hour, cfg.ScheduleInterval())
	assert.Equal(t, "mongodb://db:27017", os.Getenv("SITEMAPGEN_TEST_MONGO_URI"))
}

func TestContentSourcesOrder(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, fmt.Sprintf(sampleConfig, "missing.env")))
	require.NoError(t, err)

	sources := cfg.ContentSources()
	require.Len(t, sources, 4)
	assert.IsType(t, &storage.DocumentStore{}, sources[0])
	assert.Equal(t, "mongo:shop", sources[0].Name())
	assert.Equal(t, "/breaking-news", sources[0].PathPrefix("BreakingNews"))
	assert.IsType(t, &storage.FlatFileStore{}, sources[1])
	assert.IsType(t, &storage.PostgresStore{}, sources[2])
	assert.Equal(t, "pg", sources[2].Name())
	assert.IsType(t, &storage.SQLiteStore{}, sources[3])
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("SITEMAP_SITE_BASE_URL", "https://staging.example.com")
	t.Setenv("SITEMAP_FEED_OUTPUT", "/tmp/staging.xml")

	cfg, err := LoadConfig(writeConfig(t, fmt.Sprintf(sampleConfig, "missing.env")))
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.Site.BaseURL)
	assert.Equal(t, "/tmp/staging.xml", cfg.Feed.Output)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigurationMissing))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig(writeConfig(t, fmt.Sprintf(sampleConfig, "missing.env")))
		require.NoError(t, err)
		return cfg
	}
	bad := 1.5

	cases := map[string]func(c *Config){
		"no base url":       func(c *Config) { c.Site.BaseURL = "" },
		"relative base url": func(c *Config) { c.Site.BaseURL = "example.com" },
		"no output":         func(c *Config) { c.Feed.Output = " " },
		"bad order":         func(c *Config) { c.Feed.Order = "random" },
		"too many urls":     func(c *Config) { c.Feed.MaxURLsPerFile = 50001 },
		"bad changefreq":    func(c *Config) { c.Feed.Static.ChangeFreq = "sometimes" },
		"bad priority":      func(c *Config) { c.Feed.Dynamic.Priority = 2 },
		"bad override":      func(c *Config) { c.Feed.Overrides[0].Priority = &bad },
		"override no path":  func(c *Config) { c.Feed.Overrides[1].Path = "" },
		"bad format":        func(c *Config) { c.Registry.Format = "xml" },
		"bad index base":    func(c *Config) { c.Feed.IndexBaseURL = "/sitemaps" },
		"document no db":    func(c *Config) { c.Sources.Documents[0].Database = "" },
		"flat file no dir":  func(c *Config) { c.Sources.FlatFiles[0].Dir = "" },
		"postgres no dsn":   func(c *Config) { c.Sources.Postgres[0].DSN = "" },
		"sqlite no tables":  func(c *Config) { c.Sources.SQLite[0].Tables = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfigurationMissing))
		})
	}
}

func TestScheduleIntervalFallback(t *testing.T) {
	cfg := &Config{Schedule: ScheduleConfig{Interval: "soon"}}
	assert.Equal(t, 24*time.Hour, cfg.ScheduleInterval())
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg, err := LoadConfig("sitemap.example.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.ContentSources(), 2)
	require.Len(t, cfg.Feed.Overrides, 1)
	assert.Equal(t, 0.9, *cfg.Feed.Overrides[0].Priority)
}
