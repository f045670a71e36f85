package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/pipeline"
	"github.com/romangod6/sitemapgen/internal/registry"
	"github.com/romangod6/sitemapgen/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:   "sitemapgen",
	Short: "Generate the sitemap feed of a content site",
	Long: `sitemapgen merges the static route registry of a site with the content
records of its databases and flat files and writes a sitemap protocol feed.

Examples:
  sitemapgen generate                      # one run with ./sitemap.yaml
  sitemapgen generate -c config/prod.yaml  # one run with another config
  sitemapgen schedule --interval 6h        # regenerate every six hours
  sitemapgen verify public/sitemap.xml     # check a written feed`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: sitemap.yaml in . or ./config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 when a generation run failed (configuration, empty feed,
// sink) and 2 for any other error such as bad usage or verify findings.
func exitCode(err error) int {
	if errors.IsFatal(err) {
		return 1
	}
	return 2
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.WithHint(err, "check the --config path and the YAML syntax")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(err, "set site.base_url and feed.output in sitemap.yaml or via SITEMAP_SITE_BASE_URL and SITEMAP_FEED_OUTPUT")
	}
	return cfg, nil
}

// openRunLogger opens the console logger of one run together with its log
// file under log.dir.
func openRunLogger(cfg *config.Config) (*utils.RunLogger, error) {
	logger, err := utils.NewRunLogger(cfg.LogOptions(), cfg.Site.Name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return logger, nil
}

func newGenerator(cfg *config.Config, log *zap.SugaredLogger, rec *metrics.Recorder) (*pipeline.Generator, error) {
	return pipeline.New(
		cfg,
		cfg.ContentSources(),
		registry.NewScanner(log.Named("registry")),
		log.Named("pipeline"),
		rec,
	)
}
