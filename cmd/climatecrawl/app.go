package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/climatecrawl/internal/analysis"
	"github.com/nao1215/climatecrawl/internal/config"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/log"
	"github.com/nao1215/climatecrawl/internal/model"
	"github.com/nao1215/climatecrawl/internal/pipeline"
	"github.com/nao1215/climatecrawl/internal/report"
)

// envFile is loaded from the working directory when present.
const envFile = ".env"

// app bundles what every command needs: the resolved configuration, the
// logger, the database and the HTTP client.
//
// Design decision: Commands and the interactive menu share the same action
// methods on app, so "download" from the menu and from the command line
// behave identically.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.WeatherDB
	client *http.Client

	// out receives user-facing messages and reports written to stdout.
	out io.Writer
}

// configurer adjusts the configuration with command-specific flags.
type configurer func(cmd *cobra.Command, cfg *config.Config) error

// newApp builds the configuration from flags, environment and config file,
// validates it and opens the database.
func newApp(cmd *cobra.Command, configure ...configurer) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	for _, c := range configure {
		if err := c(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, err
	}
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if logJSON {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		client: &http.Client{Timeout: cfg.Timeout},
		out:    cmd.OutOrStdout(),
	}, nil
}

// Close releases the database.
func (a *app) Close() error {
	return a.db.Close()
}

// buildConfig creates a Config from the environment, the config file and the
// persistent flags, in increasing order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	var err error
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not
	// found. Otherwise silently continue without station configs.
	explicitConfigPath := cfg.ConfigFilePath != ""
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		if cfg.Stations, err = config.LoadConfigFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	if cfg.StationIDs, err = flags.GetIntSlice("station"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// stations returns the selected stations with their labels.
func (a *app) stations() []model.Station {
	stations := make([]model.Station, len(a.cfg.StationIDs))
	for i, id := range a.cfg.StationIDs {
		stations[i] = a.cfg.Station(id)
	}
	return stations
}

// station returns the first selected station. Plots and listings work on a
// single station.
func (a *app) station() model.Station {
	return a.cfg.Station(a.cfg.StationIDs[0])
}

// reportWriter returns the Writer for the configured format and destination.
// The returned function closes the report file, if any.
func (a *app) reportWriter(opts ...report.SimpleWriterOption) (report.Writer, func() error, error) {
	output := a.out
	closeFn := func() error { return nil }

	if a.cfg.ReportFile != "" {
		dir := filepath.Dir(a.cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(a.cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		closeFn = f.Close
	}

	switch {
	case a.cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion())), closeFn, nil
	case a.cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), closeFn, nil
	default:
		return report.NewSimpleWriter(output, opts...), closeFn, nil
	}
}

// write runs fn with a report writer and closes the report file afterwards.
func (a *app) write(fn func(w report.Writer) error, opts ...report.SimpleWriterOption) (err error) {
	w, closeFn, err := a.reportWriter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	if err := fn(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if a.cfg.ReportFile != "" {
		fmt.Fprintf(a.out, "Report written to %s\n", a.cfg.ReportFile)
	}
	return nil
}

// download downloads every selected station and prints one line per station.
func (a *app) download(ctx context.Context) ([]*pipeline.Job, error) {
	factory := pipeline.NewSpiderFactory(a.client, a.cfg, a.logger)
	downloader := pipeline.NewDownloader(a.db, factory, pipeline.WithLogger(a.logger))
	stations := a.stations()

	if len(stations) == 1 {
		fmt.Fprintf(a.out, "Downloading %s...\n", stations[0])
		job := downloader.Download(ctx, stations[0])
		a.printJob(job)
		return []*pipeline.Job{job}, ctx.Err()
	}

	fmt.Fprintf(a.out, "Downloading %d stations (concurrency: %d)...\n", len(stations), a.cfg.Concurrency)

	bp := pipeline.NewBatchProcessor(
		downloader.Pipeline,
		pipeline.WithConcurrency(a.cfg.Concurrency),
		pipeline.WithBatchLogger(a.logger),
	)

	jobs := make([]*pipeline.Job, len(stations))
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, stations, func(job *pipeline.Job, index int) {
		mu.Lock()
		defer mu.Unlock()
		jobs[index] = job
		a.printJob(job)
	})
	return jobs, err
}

// printJob prints the outcome of a download.
func (a *app) printJob(job *pipeline.Job) {
	status := job.Status()
	switch status {
	case pipeline.StatusSaved:
		color.New(color.FgGreen).Fprintf(a.out, "%s: %s", job.Station, status)
		fmt.Fprintf(a.out, " (%d new of %d downloaded records, %s)\n", job.Inserted, job.Records(), job.StopReason())
	case pipeline.StatusUpToDate:
		color.New(color.FgYellow).Fprintf(a.out, "%s: %s\n", job.Station, status)
	default:
		color.New(color.FgRed).Fprintf(a.out, "%s: %s", job.Station, status)
		switch {
		case job.Error != nil:
			fmt.Fprintf(a.out, " (%v)\n", job.Error)
		case job.Result != nil && job.Result.Err != nil:
			fmt.Fprintf(a.out, " (%v)\n", job.Result.Err)
		default:
			fmt.Fprintf(a.out, " (%s)\n", job.StopReason())
		}
	}
}

// boxPlot writes the monthly box statistics of the years [from, to].
func (a *app) boxPlot(ctx context.Context, from, to int) error {
	if err := analysis.ValidateYearRange(from, to); err != nil {
		return err
	}

	st := a.station()
	first := time.Date(from, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to, time.December, 31, 0, 0, 0, 0, time.UTC)
	set, err := a.db.FetchRange(ctx, st.ID, first, last)
	if err != nil {
		return err
	}

	stats, err := analysis.MonthlyBoxStats(set, from, to)
	if err != nil {
		return err
	}

	return a.write(func(w report.Writer) error {
		_, err := w.WriteBoxPlot(&report.BoxPlot{Station: st, FromYear: from, ToYear: to, Months: stats})
		return err
	})
}

// linePlot writes the daily means of one month.
func (a *app) linePlot(ctx context.Context, year, month int) error {
	if err := analysis.ValidateYearMonth(year, month); err != nil {
		return err
	}

	st := a.station()
	m := model.Month{Year: year, Month: time.Month(month)}
	set, err := a.db.FetchRange(ctx, st.ID, m.First(), m.Last())
	if err != nil {
		return err
	}

	points, err := analysis.DailySeries(set, year, month)
	if err != nil {
		return err
	}

	return a.write(func(w report.Writer) error {
		_, err := w.WriteLinePlot(&report.LinePlot{Station: st, Year: year, Month: m.Month, Points: points})
		return err
	})
}

// show writes the stored records of the first station in [from, to]. Zero
// bounds are open.
func (a *app) show(ctx context.Context, from, to time.Time, limit int) error {
	st := a.station()

	var set *model.WeatherSet
	var err error
	if from.IsZero() && to.IsZero() {
		set, err = a.db.FetchAll(ctx, st.ID)
	} else {
		if to.IsZero() {
			to = model.DateOf(time.Now())
		}
		set, err = a.db.FetchRange(ctx, st.ID, from, to)
	}
	if err != nil {
		return err
	}

	return a.write(func(w report.Writer) error {
		_, err := w.WriteWeather(report.NewWeatherReport(st, set))
		return err
	}, report.WithRowLimit(limit))
}

// history writes the download history. stationID 0 lists every station.
func (a *app) history(ctx context.Context, stationID, limit int) error {
	runs, err := a.db.ListRuns(ctx, stationID, limit)
	if err != nil {
		return err
	}
	return a.write(func(w report.Writer) error {
		_, err := w.WriteRuns(runs)
		return err
	})
}

// purge deletes stored records: of every station when all is set, otherwise
// of the selected stations.
func (a *app) purge(ctx context.Context, all bool) (int64, error) {
	if all {
		return a.db.Purge(ctx)
	}

	var total int64
	for _, id := range a.cfg.StationIDs {
		n, err := a.db.PurgeStation(ctx, id)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// errAborted is returned when the user declines a confirmation prompt.
var errAborted = errors.New("aborted")
