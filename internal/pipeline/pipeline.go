package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	applog "github.com/nao1215/cookiesnap/internal/log"
	"github.com/nao1215/cookiesnap/internal/model"
)

// Step is one stage of a visit. Steps run in order and record their results
// on the shared Visit.
type Step interface {
	// Do executes the step. A returned error stops the pipeline.
	Do(ctx context.Context, visit *model.Visit) error

	// Name returns the step's name for logs and errors.
	Name() string
}

// StepError reports which step of a pipeline failed.
type StepError struct {
	Step string
	Err  error
}

// Error implements error.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the step's error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Hook is called around steps, e.g. to report progress.
type Hook func(step Step, visit *model.Visit)

// Pipeline runs Steps in sequence.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
	before Hook
	after  Hook
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithBeforeStep registers a hook called before each step starts.
func WithBeforeStep(h Hook) Option {
	return func(p *Pipeline) {
		p.before = h
	}
}

// WithAfterStep registers a hook called after each step succeeds.
func WithAfterStep(h Hook) Option {
	return func(p *Pipeline) {
		p.after = h
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = applog.Discard()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps. Cancellation is checked before each step; the
// first failure is returned as a *StepError and later steps are skipped.
func (p *Pipeline) Execute(ctx context.Context, visit *model.Visit) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "target", visit.Target, "reason", err)
			return &StepError{Step: step.Name(), Err: err}
		}

		if p.before != nil {
			p.before(step, visit)
		}

		p.logger.Debug("executing step", "step", step.Name(), "target", visit.Target)
		if err := step.Do(ctx, visit); err != nil {
			p.logger.Debug("step failed", "step", step.Name(), "target", visit.Target, "error", err)
			return &StepError{Step: step.Name(), Err: err}
		}

		visit.PerformedSteps = append(visit.PerformedSteps, step.Name())
		if p.after != nil {
			p.after(step, visit)
		}
	}
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
