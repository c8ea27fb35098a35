package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/climatecrawl/internal/config"
	"github.com/nao1215/climatecrawl/internal/crawler"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

// Store is the part of the weather database the download steps use.
// *database.WeatherDB implements it.
type Store interface {
	LatestDate(ctx context.Context, stationID int) (time.Time, bool, error)
	Upsert(ctx context.Context, station model.Station, set *model.WeatherSet) (int64, error)
	SaveRun(ctx context.Context, run *database.Run) (int64, error)
}

// Crawler crawls the month pages of one station.
// *crawler.Spider implements it.
type Crawler interface {
	Crawl(ctx context.Context, checkpoint time.Time) *crawler.Result
}

// CrawlerFactory returns the crawler for a station.
type CrawlerFactory func(station model.Station) Crawler

// NewSpiderFactory returns a CrawlerFactory building Spiders from cfg.
// Station entries of the config file contribute request headers, cookies and
// epoch overrides.
//
// Design decision: Spiders are built per station rather than shared because
// a Spider is bound to one station and its headers, and the batch runs
// stations concurrently.
func NewSpiderFactory(client *http.Client, cfg *config.Config, logger *slog.Logger) CrawlerFactory {
	if logger == nil {
		logger = slog.Default()
	}

	return func(station model.Station) Crawler {
		opts := []crawler.SpiderOption{
			crawler.WithBaseURL(cfg.BaseURL),
			crawler.WithStation(station),
			crawler.WithUserAgent(cfg.UserAgent),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithDelay(cfg.RequestDelay),
			crawler.WithEmptyMonthTolerance(cfg.EmptyMonthTolerance),
			crawler.WithLogger(logger),
		}

		epoch := cfg.Epoch
		if cfg.Stations != nil {
			sc := cfg.Stations.GetStationConfig(station.ID)
			if headers := sc.RequestHeaders(); len(headers) > 0 {
				opts = append(opts, crawler.WithHeaders(headers))
			}
			if sc.Epoch != "" {
				epoch = sc.Epoch
			}
		}
		if date, err := model.ParseISODate(epoch); err == nil {
			opts = append(opts, crawler.WithEpoch(date))
		} else {
			logger.Warn("ignoring invalid epoch", "station", station.ID, "epoch", epoch, "error", err)
		}

		return crawler.NewSpider(client, opts...)
	}
}

// CheckpointStep looks up the newest stored date of the station.
// The crawl uses it as its stop date, which makes repeated downloads fetch
// only the months that can hold new days.
type CheckpointStep struct {
	store Store
}

// NewCheckpointStep creates a new checkpoint step.
func NewCheckpointStep(store Store) *CheckpointStep {
	return &CheckpointStep{store: store}
}

// Name returns the step name.
func (s *CheckpointStep) Name() string {
	return "checkpoint"
}

// Do executes the checkpoint step.
func (s *CheckpointStep) Do(ctx context.Context, job *Job) error {
	latest, ok, err := s.store.LatestDate(ctx, job.Station.ID)
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	if ok {
		job.Checkpoint = latest
	}
	return nil
}

// CrawlStep crawls the station from today back to the job checkpoint.
//
// Design decision: The step never fails. A page that cannot be fetched ends
// the crawl with the records gathered so far, which are still worth storing;
// the reason is kept in job.Result and ends up in the run history.
type CrawlStep struct {
	factory CrawlerFactory
	logger  *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawl step.
func NewCrawlStep(factory CrawlerFactory, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		factory: factory,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	job.Result = s.factory(job.Station).Crawl(ctx, job.Checkpoint)
	if job.Result.Err != nil {
		s.logger.Warn("crawl ended early",
			"station", job.Station.ID,
			"reason", job.Result.Reason.String(),
			"records", job.Result.Weather.Len(),
			"error", job.Result.Err,
		)
	}
	return nil
}

// StoreStep inserts the crawled records. Days already stored are left as
// they are.
type StoreStep struct {
	store Store
}

// NewStoreStep creates a new store step.
func NewStoreStep(store Store) *StoreStep {
	return &StoreStep{store: store}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do executes the store step.
func (s *StoreStep) Do(ctx context.Context, job *Job) error {
	if job.Records() == 0 {
		return nil
	}
	n, err := s.store.Upsert(ctx, job.Station, job.Result.Weather)
	if err != nil {
		return fmt.Errorf("store records: %w", err)
	}
	job.Inserted = n
	return nil
}

// RecordRunStep writes the job to the download history.
// It is meant to be added with AddFinalStep.
type RecordRunStep struct {
	store Store
	now   func() time.Time
}

// NewRecordRunStep creates a new record step.
func NewRecordRunStep(store Store) *RecordRunStep {
	return &RecordRunStep{store: store, now: time.Now}
}

// Name returns the step name.
func (s *RecordRunStep) Name() string {
	return "record_run"
}

// Do executes the record step.
func (s *RecordRunStep) Do(ctx context.Context, job *Job) error {
	run := database.Run{
		StationID:  job.Station.ID,
		StartedAt:  job.StartedAt,
		FinishedAt: s.now(),
		Checkpoint: job.Checkpoint,
		Records:    job.Records(),
		Inserted:   job.Inserted,
		StopReason: job.StopReason(),
		Error:      job.ErrorMessage,
	}
	if job.Result != nil {
		run.Months = len(job.Result.Months)
		if run.Error == "" && job.Result.Err != nil {
			run.Error = job.Result.Err.Error()
		}
	}

	if _, err := s.store.SaveRun(ctx, &run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	job.Run = run
	return nil
}

// DefaultPipeline creates the download pipeline: checkpoint, crawl and store,
// with the run history written last.
func DefaultPipeline(store Store, factory CrawlerFactory, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewCheckpointStep(store),
		NewCrawlStep(factory, WithCrawlLogger(p.logger)),
		NewStoreStep(store),
	)
	p.AddFinalStep(NewRecordRunStep(store))
	return p
}
