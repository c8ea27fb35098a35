package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/climatecrawl/internal/config"
	"github.com/nao1215/climatecrawl/internal/pipeline"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download daily temperatures newer than the stored ones",
		Long: `Download fetches the month pages of the selected stations, starting with the
current month and walking backward in time. It stops at the month of the newest
day already stored, or at the epoch when nothing is stored yet, or when the
site reports that no older data exists.

Records already in the database are never overwritten. A download that fails
part way keeps the records fetched until then.

Examples:
  # Download the default station (Winnipeg)
  climatecrawl download

  # Download two stations, two at a time
  climatecrawl download -s 27174 -s 3698

  # First download of a station, only from 2000 on
  climatecrawl download -s 3698 --epoch 2000-01-01`,
		Args: cobra.NoArgs,
		RunE: runDownloadCmd,
	}

	addDownloadFlags(cmd)
	return cmd
}

// addDownloadFlags adds the flags shared by download and schedule.
func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency,
		"Number of stations downloaded at the same time")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page request")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Delay between two month requests of a station")
	cmd.Flags().String("epoch", config.DefaultEpoch,
		"Oldest date downloaded when a station has no stored records (YYYY-MM-DD)")
	cmd.Flags().Int("empty-months", 0,
		"Consecutive months without data to skip before stopping")
}

// applyDownloadFlags copies explicitly set download flags into cfg.
func applyDownloadFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.RequestDelay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("epoch") {
		if cfg.Epoch, err = flags.GetString("epoch"); err != nil {
			return err
		}
	}
	if flags.Changed("empty-months") {
		if cfg.EmptyMonthTolerance, err = flags.GetInt("empty-months"); err != nil {
			return err
		}
	}
	return nil
}

// runDownloadCmd executes the download command.
func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, applyDownloadFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	jobs, err := a.download(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Finished in %s\n", time.Since(start).Round(time.Millisecond))

	return downloadError(jobs)
}

// downloadError returns an error when no station could be downloaded.
func downloadError(jobs []*pipeline.Job) error {
	failed := 0
	for _, job := range jobs {
		if job == nil || job.Status() == pipeline.StatusFailed {
			failed++
		}
	}
	if len(jobs) > 0 && failed == len(jobs) {
		return fmt.Errorf("failed to download %d of %d stations", failed, len(jobs))
	}
	return nil
}
