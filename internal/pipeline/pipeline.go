package pipeline

import (
	"context"
	"log/slog"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the job state
// left by the previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry their collaborators (store, crawler factory)
// 2. It provides a Name() method for logging and the run history
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; a crawl that ends early
	// is not an error and is recorded in job.Result instead.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It keeps an ordered list of main steps and of final steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// finalSteps run after steps, whatever their outcome.
	finalSteps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		finalSteps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalStep appends a step that runs after the main steps even when one of
// them failed or the context was cancelled. Final steps receive a context
// that is never cancelled, so bookkeeping still reaches the store.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs all pipeline steps in sequence, then the final steps.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps (the crawl in particular) handle cancellation
// themselves and return what they gathered so far.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete. The error is also recorded in the job.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	err := p.run(ctx, job)

	finalCtx := context.WithoutCancel(ctx)
	for _, step := range p.finalSteps {
		if ferr := p.runStep(finalCtx, step, job); ferr != nil && err == nil {
			err = ferr
		}
	}

	return err
}

func (p *Pipeline) run(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			job.Cancelled = true
			if job.Error == nil {
				job.setError(ctx.Err())
			}
			return ctx.Err()
		default:
		}

		if err := p.runStep(ctx, step, job); err != nil && !p.continueOnError {
			return err
		}
	}
	return nil
}

// runStep executes one step and records its outcome in job.
func (p *Pipeline) runStep(ctx context.Context, step Step, job *Job) error {
	p.logger.Debug("executing step",
		"step", step.Name(),
		"station", job.Station.ID,
	)

	err := step.Do(ctx, job)
	job.PerformedSteps = append(job.PerformedSteps, step.Name())
	if err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"station", job.Station.ID,
			"error", err,
		)
		if job.Error == nil {
			job.setError(err)
		}
		return err
	}

	p.logger.Debug("step completed",
		"step", step.Name(),
		"station", job.Station.ID,
	)
	return nil
}

// StepCount returns the number of steps in the pipeline, final steps included.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.finalSteps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalSteps {
		names = append(names, step.Name())
	}
	return names
}
