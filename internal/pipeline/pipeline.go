package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcxsea/fieldreport/internal/model"
)

// ErrSkipped marks a step whose inputs were missing. Steps return it
// (wrapped with a reason) instead of doing work.
var ErrSkipped = errors.New("step skipped")

// skip returns an ErrSkipped error with a reason.
func skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// Step represents a single stage of report generation.
// Each step reads what earlier steps left in the run and adds its own
// output.
type Step interface {
	// Do executes the step, modifying the run in place.
	Do(ctx context.Context, run *model.Run) error

	// Name returns a short identifier for the step, used in logs and in
	// the run's step results.
	Name() string
}

// StepHook is called after every step with the recorded result.
type StepHook func(run *model.Run, result model.StepResult)

// Pipeline executes steps in order.
type Pipeline struct {
	// steps is the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging of pipeline execution.
	logger *slog.Logger

	// continueOnError determines whether to continue after step failures.
	continueOnError bool

	// hooks observe step results as they are recorded.
	hooks []StepHook
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures whether the pipeline keeps running after
// a step fails. Report generation runs with true so independent later
// steps still execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithStepHook registers a hook called after every step.
func WithStepHook(hook StepHook) Option {
	return func(p *Pipeline) {
		if hook != nil {
			p.hooks = append(p.hooks, hook)
		}
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
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps against run and records a StepResult for each.
//
// Skipped steps never stop the pipeline. A failed step stops it unless
// continueOnError is set; the returned error is then the first failure.
// Cancellation stops the pipeline before the next step and marks the run
// as timed out.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	var firstErr error

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			run.TimedOut = true
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"dataset", run.Dataset.Label,
		)

		start := time.Now()
		err := step.Do(ctx, run)
		result := model.StepResult{Name: step.Name(), Duration: time.Since(start)}

		switch {
		case errors.Is(err, ErrSkipped):
			result.Status = model.StepSkipped
			result.Message = err.Error()
			p.logger.Info("step skipped",
				"step", step.Name(),
				"dataset", run.Dataset.Label,
				"reason", err,
			)
		case err != nil:
			result.Status = model.StepFailed
			result.Error = err.Error()
			p.logger.Error("step failed",
				"step", step.Name(),
				"dataset", run.Dataset.Label,
				"error", err,
			)
		default:
			result.Status = model.StepOK
			p.logger.Debug("step completed",
				"step", step.Name(),
				"dataset", run.Dataset.Label,
				"duration", result.Duration,
			)
		}

		run.Steps = append(run.Steps, result)
		for _, hook := range p.hooks {
			hook(run, result)
		}

		if result.Status == model.StepFailed {
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return err
			}
		}
	}

	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
