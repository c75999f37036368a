package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the session filled in by
// the steps before it.
//
// Design decision: an interface rather than function types, so that steps
// carry their collaborators and report a Name for logging.
type Step interface {
	// Do executes the step. Failures that only affect a part of the work
	// (a single page, a single file) are recorded in the session by the
	// step itself; a returned error means the step as a whole failed.
	Do(ctx context.Context, session *model.Session) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

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

// WithContinueOnError configures the pipeline to run the remaining steps
// after one fails. The error is recorded in the session.
//
// Design decision: the default is to stop. An ask after a failed ingest
// would answer from stale vectors without saying so.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
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

// Execute runs all pipeline steps in sequence.
//
// Cancellation is checked before each step; a step in progress handles its
// own cancellation. Returns the first error unless continueOnError is set.
func (p *Pipeline) Execute(ctx context.Context, session *model.Session) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			session.Cancelled = true
			return err
		}

		p.logger.Info("executing step", "step", step.Name(), "start_url", session.StartURL)

		err := step.Do(ctx, session)
		session.PerformedSteps = append(session.PerformedSteps, step.Name())
		if err == nil {
			p.logger.Debug("step completed", "step", step.Name())
			continue
		}

		p.logger.Error("step failed", "step", step.Name(), "error", err)
		session.StepErrors = append(session.StepErrors, step.Name()+": "+err.Error())
		if ctx.Err() != nil {
			session.Cancelled = true
			return err
		}
		if !p.continueOnError {
			return err
		}
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
