package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/consent"
	applog "github.com/nao1215/cookiesnap/internal/log"
	"github.com/nao1215/cookiesnap/internal/model"
	"github.com/nao1215/cookiesnap/internal/pipeline"
)

// DefaultDynamicSettle is the wait after consent handling.
const DefaultDynamicSettle = 3 * time.Second

// Progress fractions reported within one visit.
const (
	fractionLoaded    = 0.5
	fractionReading   = 0.8
	fractionCompleted = 1.0
)

// ProgressFunc receives the fraction of the current visit in [0,1] and a
// human-readable message.
type ProgressFunc func(fraction float64, message string)

// CollectionError is returned when a visit fails. Step names the pipeline
// step that failed.
type CollectionError struct {
	Target string
	Step   string
	Err    error
}

// Error implements error.
func (e *CollectionError) Error() string {
	return fmt.Sprintf("failed to collect cookies from %s at %s: %v", e.Target, e.Step, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful visit.
type Result struct {
	Cookies          []model.Cookie
	ConsentDismissed bool
	Steps            []string
}

// Collector runs visits.
type Collector struct {
	dismisser     pipeline.Dismisser
	dynamicSettle time.Duration
	wait          browser.WaitFunc
	logger        *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithDismisser replaces the consent dismisser.
func WithDismisser(d pipeline.Dismisser) Option {
	return func(c *Collector) {
		if d != nil {
			c.dismisser = d
		}
	}
}

// WithDynamicSettle sets the wait after consent handling.
func WithDynamicSettle(d time.Duration) Option {
	return func(c *Collector) {
		if d >= 0 {
			c.dynamicSettle = d
		}
	}
}

// WithWait replaces the settle wait implementation.
func WithWait(wait browser.WaitFunc) Option {
	return func(c *Collector) {
		if wait != nil {
			c.wait = wait
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Collector with the default consent heuristic.
func New(opts ...Option) *Collector {
	c := &Collector{
		dynamicSettle: DefaultDynamicSettle,
		wait:          browser.Wait,
		logger:        applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dismisser == nil {
		c.dismisser = consent.New(consent.WithLogger(c.logger), consent.WithWait(c.wait))
	}
	return c
}

// Collect visits target in session and returns its cookies. waitTime is the
// settle interval after navigation. progress may be nil.
func (c *Collector) Collect(ctx context.Context, session browser.Session, target string, waitTime time.Duration, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(float64, string) {}
	}

	p := pipeline.New(
		pipeline.WithLogger(c.logger),
		pipeline.WithBeforeStep(func(step pipeline.Step, v *model.Visit) {
			if step.Name() == pipeline.StepReadCookies {
				progress(fractionReading, "Getting cookies from "+v.Target)
			}
		}),
		pipeline.WithAfterStep(func(step pipeline.Step, v *model.Visit) {
			if step.Name() == pipeline.StepNavigate {
				progress(fractionLoaded, "Loading "+v.Target)
			}
		}),
	)
	p.AddSteps(
		pipeline.NewNavigateStep(session),
		pipeline.NewSettleStep(c.wait),
		pipeline.NewConsentStep(session, c.dismisser),
		pipeline.NewFixedSettleStep(c.dynamicSettle, c.wait),
		pipeline.NewReadCookiesStep(session),
	)

	visit := model.NewVisit(target, waitTime)
	if err := p.Execute(ctx, visit); err != nil {
		return nil, toCollectionError(target, err)
	}

	progress(fractionCompleted, "Completed "+target)
	c.logger.Debug("collected cookies", "target", target, "cookie_count", len(visit.Cookies), "consent_dismissed", visit.ConsentDismissed)

	return &Result{
		Cookies:          visit.Cookies,
		ConsentDismissed: visit.ConsentDismissed,
		Steps:            visit.PerformedSteps,
	}, nil
}

func toCollectionError(target string, err error) error {
	ce := &CollectionError{Target: target, Err: err}
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		ce.Step = stepErr.Step
		ce.Err = stepErr.Err
	}
	return ce
}
