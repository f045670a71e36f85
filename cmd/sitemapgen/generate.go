package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/metrics"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one sitemap generation",
	Long: `Scan the route registry, read every content source and write the feed.

Unreachable sources are skipped with a warning. The command fails, keeping
the previous feed, when the configuration is invalid, the feed would be
empty or the output cannot be written.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := openRunLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	gen, err := newGenerator(cfg, logger.SugaredLogger, metrics.NewRecorder(nil))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := gen.Run(ctx)
	if err != nil {
		logger.Errorw("Sitemap generation failed", "error", err)
		return err
	}
	logger.Infow("Generation complete",
		"run_id", sum.RunID,
		"entries", sum.Entries,
		"duration", sum.Duration,
		"log_file", logger.Path())
	return nil
}
