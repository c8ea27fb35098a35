package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/climatecrawl/internal/config"
	"github.com/nao1215/climatecrawl/internal/scheduler"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Download new records periodically",
		Long: `Schedule keeps running and downloads the selected stations on a cron
schedule until it is interrupted. Each run only fetches the months newer than
the stored data.

The schedule accepts five cron fields or descriptors:
  @daily, @hourly, @every 6h, "30 6 * * *"

Examples:
  # Download every morning at 06:30
  climatecrawl schedule --cron "30 6 * * *"

  # Download once right away, then daily
  climatecrawl schedule --now`,
		Args: cobra.NoArgs,
		RunE: runScheduleCmd,
	}

	addDownloadFlags(cmd)
	cmd.Flags().String("cron", config.DefaultSchedule, "Cron schedule of the downloads")
	cmd.Flags().Bool("now", false, "Download once immediately before waiting for the schedule")

	return cmd
}

// runScheduleCmd executes the schedule command.
func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	runNow, err := cmd.Flags().GetBool("now")
	if err != nil {
		return err
	}

	a, err := newApp(cmd, applyDownloadFlags, func(cmd *cobra.Command, cfg *config.Config) error {
		var err error
		cfg.Schedule, err = cmd.Flags().GetString("cron")
		return err
	})
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := scheduler.New(a.cfg.Schedule, func(ctx context.Context) error {
		jobs, err := a.download(ctx)
		if err != nil {
			return err
		}
		return downloadError(jobs)
	},
		scheduler.WithLogger(a.logger),
		scheduler.WithRunOnStart(runNow),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(a.out, "Scheduled downloads %q; press Ctrl+C to stop.\n", a.cfg.Schedule)
	if err := s.Run(ctx); err != nil {
		return err
	}

	runs, failures := s.Stats()
	fmt.Fprintf(a.out, "Stopped after %d downloads (%d failed).\n", runs, failures)
	return nil
}
