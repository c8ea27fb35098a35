package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrEmptySchedule is returned when no schedule expression is given.
var ErrEmptySchedule = errors.New("schedule expression is empty")

// parser accepts five-field expressions and descriptors like "@daily".
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Task is the work run on every tick.
type Task func(ctx context.Context) error

// Scheduler runs a Task on a cron schedule until its context is cancelled.
//
// Design decision: We use robfig/cron rather than a time.Ticker because the
// download should happen at a wall-clock time (e.g. every morning after the
// climate site publishes the previous day), not at a fixed interval from
// whenever the process started.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	task     Task
	logger   *slog.Logger

	// runOnStart runs the task once immediately when Run starts.
	runOnStart bool

	// location is the time zone the schedule is evaluated in.
	location *time.Location

	mu       sync.Mutex
	runs     int
	failures int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRunOnStart runs the task once as soon as Run is called.
func WithRunOnStart(runOnStart bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = runOnStart
	}
}

// WithLocation evaluates the schedule in loc instead of the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// ParseSchedule validates a schedule expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	if spec == "" {
		return nil, ErrEmptySchedule
	}
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// New creates a Scheduler running task on spec.
func New(spec string, task Task, opts ...Option) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		spec:     spec,
		schedule: schedule,
		task:     task,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Next returns the first tick after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Stats returns how many times the task ran and how many of those failed.
func (s *Scheduler) Stats() (runs, failures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.failures
}

// Run starts the schedule and blocks until ctx is cancelled. A download in
// progress receives the cancellation and Run waits for it to return.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(s.spec, func() { s.runTask(ctx) }); err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}

	s.logger.Info("scheduler started",
		"schedule", s.spec,
		"next", s.Next(time.Now()).Format(time.RFC3339),
	)

	if s.runOnStart {
		s.runTask(ctx)
	}

	c.Start()
	<-ctx.Done()

	// Stop prevents new ticks; its context is done once running jobs return.
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped", "reason", ctx.Err())
	return nil
}

// runTask runs the task once and logs its outcome.
func (s *Scheduler) runTask(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := s.task(ctx)

	s.mu.Lock()
	s.runs++
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled download failed", "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Info("scheduled download finished",
		"elapsed", time.Since(start),
		"next", s.Next(time.Now()).Format(time.RFC3339),
	)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

// Info logs routine cron messages at debug level.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error logs cron errors, including recovered panics.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
