package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/climatecrawl/internal/model"
)

// Downloader runs the default pipeline for one station at a time.
type Downloader struct {
	store   Store
	factory CrawlerFactory
	opts    []Option
}

// NewDownloader creates a Downloader. opts are applied to every pipeline it
// builds.
func NewDownloader(store Store, factory CrawlerFactory, opts ...Option) *Downloader {
	return &Downloader{store: store, factory: factory, opts: opts}
}

// Pipeline returns a fresh download pipeline.
func (d *Downloader) Pipeline() *Pipeline {
	return DefaultPipeline(d.store, d.factory, d.opts...)
}

// Download downloads the records of station that are newer than its stored
// ones. The returned job is never nil; its Status tells whether records were
// saved.
func (d *Downloader) Download(ctx context.Context, station model.Station) *Job {
	job := NewJob(station)
	_ = d.Pipeline().Execute(ctx, job) //nolint:errcheck // Error is stored in job
	return job
}

// BatchProcessor handles concurrent downloads of multiple stations.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on a single station
// 2. Concurrency is only ever across stations; the month pages of one
// station are fetched one after another by its Spider
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each station.
	// We use a factory to ensure each download gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent downloads.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent downloads.
// Default is config.DefaultConcurrency if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each station to create a fresh
// pipeline instance, typically Downloader.Pipeline.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch downloads multiple stations concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// Returns one job per station in input order, even for stations that failed.
// Stations that had not started when the context was cancelled have a nil
// job, and the error return is only non-nil in that case.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, stations []model.Station) ([]*Job, error) {
	bp.logger.Info("starting batch download",
		"total_stations", len(stations),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	jobs := make([]*Job, len(stations))
	var mu sync.Mutex

	err := bp.run(ctx, stations, func(job *Job, i int) {
		mu.Lock()
		jobs[i] = job
		mu.Unlock()
	})

	bp.logger.Info("batch download complete",
		"total_stations", len(stations),
		"elapsed", time.Since(startTime),
	)

	return jobs, err
}

// ProcessBatchWithCallback downloads multiple stations and calls a callback
// for each completed job. This is useful for streaming results.
//
// The callback is called from the goroutine that completed the download, so
// it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	stations []model.Station,
	callback func(job *Job, index int),
) error {
	return bp.run(ctx, stations, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, stations []model.Station, done func(job *Job, index int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, station := range stations {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("downloading station",
				"station", station.ID,
				"index", i+1,
				"total", len(stations),
			)

			job := NewJob(station)
			err := bp.pipelineFactory().Execute(ctx, job)
			done(job, i)

			if err != nil {
				bp.logger.Warn("download failed",
					"station", station.ID,
					"error", err,
				)
				// Other stations keep going; the error is recorded in the job.
				return nil
			}

			bp.logger.Info("download completed",
				"station", station.ID,
				"status", job.Status().String(),
				"inserted", job.Inserted,
			)
			return nil
		})
	}

	return g.Wait()
}
