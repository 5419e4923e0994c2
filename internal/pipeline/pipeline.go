package pipeline

import (
	"context"
	"log/slog"

	"github.com/renutil/rensweep/internal/model"
)

// Step defines the interface that all pipeline steps implement.
// Steps run in sequence; each receives the report accumulated by the
// previous steps. Ordering matters: the resolver needs both indexes, and
// nothing destructive happens inside a pipeline at all — deletion is a
// separate, explicitly-invoked stage after the full unused set exists.
type Step interface {
	// Do executes the step against the report.
	// Critical failures return an error; recoverable problems should be
	// recorded as warnings on the report and return nil.
	Do(ctx context.Context, report *model.SweepReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order against a shared report.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to keep executing steps after
	// one fails. The default stops on first error because a failed walk
	// usually means the later steps would act on a partial view.
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

// WithContinueOnError configures the pipeline to keep going when a step
// fails. Failed steps are logged and recorded on the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a Pipeline with the given options.
// Steps are added with AddSteps after creation.
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

// AddSteps appends steps to the pipeline in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence.
// Cancellation is checked between steps; steps handle their own
// cancellation internally during long walks.
func (p *Pipeline) Execute(ctx context.Context, report *model.SweepReport) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			report.Cancelled = true
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"images", report.ImagesRoot,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)

			report.Err = err
			report.ErrorMessage = err.Error()

			if !p.continueOnError {
				return err
			}
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
