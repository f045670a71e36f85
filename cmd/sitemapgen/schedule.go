package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/errors"
	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/utils"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Regenerate the feed periodically until interrupted",
	Long: `Run a generation every interval (schedule.interval, default 24h) until
SIGINT or SIGTERM. A run that is still going when the next one is due
delays it instead of overlapping it. Failed runs are logged and the
schedule continues.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var (
	intervalFlag    time.Duration
	immediatelyFlag bool
)

func init() {
	scheduleCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "time between runs (overrides schedule.interval)")
	scheduleCmd.Flags().BoolVar(&immediatelyFlag, "now", true, "run once right after start")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// scheduler messages go to the console only; every run opens its own
	// log file
	logger, err := utils.NewRunLogger(utils.LogOptions{Level: cfg.Log.Level, JSON: cfg.Log.JSON}, cfg.Site.Name)
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	defer logger.Close()
	rec := metrics.NewRecorder(nil)

	interval := intervalFlag
	if interval <= 0 {
		interval = cfg.ScheduleInterval()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts := []gocron.JobOption{
		gocron.WithName("sitemap-generate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediatelyFlag {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(runScheduled, ctx, cfg, rec, logger.SugaredLogger),
		opts...,
	); err != nil {
		return errors.Wrap(err, "failed to schedule generation")
	}

	s.Start()
	logger.Infow("Scheduler started", "interval", interval, "output", cfg.Feed.Output)

	waitForShutdown(cancel, s, logger.SugaredLogger)
	return nil
}

// runScheduled performs one scheduled run with its own log file. Failures
// are logged and the schedule goes on.
func runScheduled(ctx context.Context, cfg *config.Config, rec *metrics.Recorder, log *zap.SugaredLogger) {
	runLog, err := openRunLogger(cfg)
	if err != nil {
		log.Errorw("Skipping scheduled generation", "error", err)
		return
	}
	defer runLog.Close()

	gen, err := newGenerator(cfg, runLog.SugaredLogger, rec)
	if err != nil {
		runLog.Errorw("Skipping scheduled generation", "error", err)
		return
	}

	sum, err := gen.Run(ctx)
	switch {
	case err == nil:
		runLog.Infow("Scheduled generation complete",
			"run_id", sum.RunID, "entries", sum.Entries, "duration", sum.Duration, "log_file", runLog.Path())
	case errors.IsFatal(err):
		runLog.Errorw("Scheduled generation failed, keeping the previous feed", "run_id", sum.RunID, "error", err)
	default:
		runLog.Warnw("Scheduled generation interrupted", "run_id", sum.RunID, "error", err)
	}
}

func waitForShutdown(cancel context.CancelFunc, s gocron.Scheduler, log *zap.SugaredLogger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Shutting down...")
	cancel()

	if err := s.Shutdown(); err != nil {
		log.Warnw("Error shutting down scheduler", "error", err)
	}
	log.Info("Scheduler shut down gracefully")
}
