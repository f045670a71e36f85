package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/registry"
	"github.com/romangod6/sitemapgen/internal/routes"
	"github.com/romangod6/sitemapgen/internal/storage"
	"github.com/romangod6/sitemapgen/internal/utils"
)

// Feed orderings.
const (
	OrderSource   = "source"
	OrderPriority = "priority"
)

type Config struct {
	EnvFile  string `mapstructure:"env_file"`
	Site     SiteConfig
	Registry RegistryConfig
	Sources  SourcesConfig
	Exclude  []string
	Feed     FeedConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Schedule ScheduleConfig
}

type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Name    string
}

type RegistryConfig struct {
	Path        string
	Format      string
	ExtraRoutes []string `mapstructure:"extra_routes"`
}

type SourcesConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
	Documents     []DocumentSource
	FlatFiles     []FlatFileSource `mapstructure:"flat_files"`
	Postgres      []TableSource
	SQLite        []TableSource `mapstructure:"sqlite"`
}

type DocumentSource struct {
	Name        string
	URI         string
	URIEnv      string `mapstructure:"uri_env"`
	Database    string
	Collections []string
	Prefixes    map[string]string
	Fields      storage.FieldMap
	Timeout     time.Duration
}

type FlatFileSource struct {
	Name     string
	Dir      string
	Files    []string
	Prefixes map[string]string
	Fields   storage.FieldMap
}

type TableSource struct {
	Name     string
	DSN      string
	Tables   []string
	Prefixes map[string]string
	Fields   storage.FieldMap
	Timeout  time.Duration
}

// ClassDefaults are the changefreq and priority of a route class.
type ClassDefaults struct {
	ChangeFreq string `mapstructure:"changefreq"`
	Priority   float64
}

type InformationalDefaults struct {
	ClassDefaults `mapstructure:",squash"`
	Paths         []string
}

// Override pins changefreq and/or priority of one path.
type Override struct {
	Path       string
	ChangeFreq string `mapstructure:"changefreq"`
	Priority   *float64
}

type FeedConfig struct {
	Output         string
	MaxURLsPerFile int  `mapstructure:"max_urls_per_file"`
	AllowExternal  bool `mapstructure:"allow_external"`
	Order          string
	IndexBaseURL   string `mapstructure:"index_base_url"`
	Home           ClassDefaults
	Static         ClassDefaults
	Informational  InformationalDefaults
	Dynamic        ClassDefaults
	Overrides      []Override
}

type LogConfig struct {
	Dir   string
	Level string
	JSON  bool
}

type MetricsConfig struct {
	Textfile string
}

type ScheduleConfig struct {
	Interval string
}

// LoadConfig reads sitemap.yaml from . or ./config, or the file at path
// when it is not empty. SITEMAP_* environment variables override file
// values; the env file named by env_file is loaded into the environment
// first and a missing one is ignored.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SITEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sitemap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Mark(errors.Wrap(err, "read config"), errors.ErrConfigurationMissing)
		}
	}

	if envFile := v.GetString("env_file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "load env file %s", envFile), errors.ErrConfigurationMissing)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode config"), errors.ErrConfigurationMissing)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env_file", ".env")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.name", "site")

	v.SetDefault("registry.path", "")
	v.SetDefault("registry.format", string(registry.FormatAuto))
	v.SetDefault("registry.extra_routes", []string{})

	v.SetDefault("sources.max_concurrent", 4)

	v.SetDefault("feed.output", "public/sitemap.xml")
	v.SetDefault("feed.max_urls_per_file", 50000)
	v.SetDefault("feed.allow_external", false)
	v.SetDefault("feed.order", OrderSource)
	v.SetDefault("feed.index_base_url", "")
	v.SetDefault("feed.home.changefreq", string(models.ChangeDaily))
	v.SetDefault("feed.home.priority", 1.0)
	v.SetDefault("feed.static.changefreq", string(models.ChangeMonthly))
	v.SetDefault("feed.static.priority", 0.5)
	v.SetDefault("feed.informational.changefreq", string(models.ChangeYearly))
	v.SetDefault("feed.informational.priority", 0.1)
	v.SetDefault("feed.informational.paths", []string{
		"/terms-of-service", "/privacy-policy", "/contact-us", "/return-policy", "/my-story",
	})
	v.SetDefault("feed.dynamic.changefreq", string(models.ChangeWeekly))
	v.SetDefault("feed.dynamic.priority", 0.8)

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("metrics.textfile", "")
	v.SetDefault("schedule.interval", "24h")
}

// Validate checks everything a run needs before any I/O happens. Every
// failure is ErrConfigurationMissing.
func (c *Config) Validate() error {
	if _, err := routes.NewNormalizer(c.Site.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Feed.Output) == "" {
		return invalid("feed.output is required")
	}
	if c.Feed.MaxURLsPerFile < 0 || c.Feed.MaxURLsPerFile > 50000 {
		return invalid("feed.max_urls_per_file must be between 0 and 50000, got %d", c.Feed.MaxURLsPerFile)
	}
	if c.Feed.Order != OrderSource && c.Feed.Order != OrderPriority {
		return invalid("feed.order must be %q or %q, got %q", OrderSource, OrderPriority, c.Feed.Order)
	}
	if c.Feed.IndexBaseURL != "" {
		u, err := url.Parse(c.Feed.IndexBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("feed.index_base_url %q is not an absolute url", c.Feed.IndexBaseURL)
		}
	}
	if _, ok := registry.ParseFormat(c.Registry.Format); !ok {
		return invalid("registry.format %q is not supported", c.Registry.Format)
	}

	classes := map[string]ClassDefaults{
		"home":          c.Feed.Home,
		"static":        c.Feed.Static,
		"informational": c.Feed.Informational.ClassDefaults,
		"dynamic":       c.Feed.Dynamic,
	}
	for name, d := range classes {
		if _, ok := models.ParseChangeFreq(d.ChangeFreq); !ok {
			return invalid("feed.%s.changefreq %q is not a sitemap changefreq", name, d.ChangeFreq)
		}
		if d.Priority < 0 || d.Priority > 1 {
			return invalid("feed.%s.priority %v is outside [0, 1]", name, d.Priority)
		}
	}
	for i, o := range c.Feed.Overrides {
		if strings.TrimSpace(o.Path) == "" {
			return invalid("feed.overrides[%d] has no path", i)
		}
		if o.ChangeFreq != "" {
			if _, ok := models.ParseChangeFreq(o.ChangeFreq); !ok {
				return invalid("feed.overrides[%d].changefreq %q is not a sitemap changefreq", i, o.ChangeFreq)
			}
		}
		if o.Priority != nil && (*o.Priority < 0 || *o.Priority > 1) {
			return invalid("feed.overrides[%d].priority %v is outside [0, 1]", i, *o.Priority)
		}
	}

	for i, d := range c.Sources.Documents {
		if d.Database == "" || len(d.Collections) == 0 {
			return invalid("sources.documents[%d] needs a database and collections", i)
		}
	}
	for i, f := range c.Sources.FlatFiles {
		if f.Dir == "" {
			return invalid("sources.flat_files[%d] needs a dir", i)
		}
	}
	for i, t := range c.Sources.Postgres {
		if t.DSN == "" || len(t.Tables) == 0 {
			return invalid("sources.postgres[%d] needs a dsn and tables", i)
		}
	}
	for i, t := range c.Sources.SQLite {
		if t.DSN == "" || len(t.Tables) == 0 {
			return invalid("sources.sqlite[%d] needs a dsn and tables", i)
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(errors.ErrConfigurationMissing, format, args...)
}

// ContentSources builds the configured adapters in processing order:
// documents, flat files, postgres, sqlite.
func (c *Config) ContentSources() []storage.Source {
	var sources []storage.Source
	for _, d := range c.Sources.Documents {
		uri := d.URI
		if uri == "" {
			env := d.URIEnv
			if env == "" {
				env = "MONGO_URI"
			}
			uri = os.Getenv(env)
		}
		sources = append(sources, storage.NewDocumentStore(storage.DocumentOptions{
			Name:        d.Name,
			URI:         uri,
			Database:    d.Database,
			Collections: d.Collections,
			Prefixes:    d.Prefixes,
			Fields:      d.Fields,
			Timeout:     d.Timeout,
		}))
	}
	for _, f := range c.Sources.FlatFiles {
		sources = append(sources, storage.NewFlatFileStore(storage.FlatFileOptions{
			Name:     f.Name,
			Dir:      f.Dir,
			Files:    f.Files,
			Prefixes: f.Prefixes,
			Fields:   f.Fields,
		}))
	}
	for _, t := range c.Sources.Postgres {
		sources = append(sources, storage.NewPostgresStore(tableOptions(t)))
	}
	for _, t := range c.Sources.SQLite {
		sources = append(sources, storage.NewSQLiteStore(tableOptions(t)))
	}
	return sources
}

func tableOptions(t TableSource) storage.TableStoreOptions {
	return storage.TableStoreOptions{
		Name:     t.Name,
		DSN:      t.DSN,
		Tables:   t.Tables,
		Prefixes: t.Prefixes,
		Fields:   t.Fields,
		Timeout:  t.Timeout,
	}
}

func (c *Config) LogOptions() utils.LogOptions {
	return utils.LogOptions{Dir: c.Log.Dir, Level: c.Log.Level, JSON: c.Log.JSON}
}

// ScheduleInterval parses schedule.interval, falling back to 24h.
func (c *Config) ScheduleInterval() time.Duration {
	d, err := time.ParseDuration(c.Schedule.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
