package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"favsync/internal/catalog"
	"favsync/internal/config"
	"favsync/internal/logging"
	"favsync/internal/mirror"
	"favsync/internal/report"
	"favsync/internal/runlog"
	"favsync/internal/transcode"
)

// errActionsFailed signals that the run finished but some actions failed;
// main maps it to exit status 1.
var errActionsFailed = errors.New("run completed with failed actions")

func newRunCommand(configFlag *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the sync directory against remote favorites",
		Long: "Fetches the current favorite set, diffs it against the sync directory, " +
			"then transcodes new tracks, removes unfavorited ones, and mirrors album art.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := catalog.New(cfg, nil, logger)
			engine := transcode.NewFFmpeg(cfg, logger)
			runner := mirror.NewRunner(cfg, client, engine, logger)

			summary, runErr := runner.Run(ctx, dryRun)

			if summary != nil && summary.RunID != "" {
				recordHistory(cfg, summary, logger)
				report.WriteSummary(cmd.OutOrStdout(), summary, stdoutIsTTY())
			}
			if runErr != nil {
				return fmt.Errorf("sync aborted: %w", runErr)
			}
			if summary.Failed() > 0 {
				return errActionsFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the plan without touching any file")
	return cmd
}

// recordHistory is best effort; a broken history DB must not fail a sync
// that already converged.
func recordHistory(cfg *config.Config, summary *mirror.Summary, logger *slog.Logger) {
	if !cfg.History.Enabled || summary.DryRun {
		return
	}
	store, err := runlog.Open(cfg.History.Path, cfg.History.Keep)
	if err != nil {
		logger.Warn("could not open history database", logging.Error(err))
		return
	}
	defer store.Close()
	if err := store.Record(context.Background(), summary); err != nil {
		logger.Warn("could not record run history", logging.Error(err))
	}
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
}

func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
