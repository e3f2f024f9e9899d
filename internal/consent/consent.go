package consent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/cookiesnap/internal/browser"
	applog "github.com/nao1215/cookiesnap/internal/log"
)

const (
	// DefaultTimeout is how long each selector may take to match.
	DefaultTimeout = 5 * time.Second

	// DefaultPause lets the banner animate out after the click.
	DefaultPause = 2 * time.Second
)

// Outcome is the result of a dismissal attempt.
type Outcome int

const (
	// NotFound means no selector matched. It is not an error.
	NotFound Outcome = iota
	// Dismissed means a consent control was clicked.
	Dismissed
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == Dismissed {
		return "dismissed"
	}
	return "not found"
}

// DefaultSelectors returns the ordered selector list: attribute substring
// matches on id, class and data-testid first, then button labels.
func DefaultSelectors() []browser.Selector {
	return []browser.Selector{
		{CSS: `button[id*="cookie"]`},
		{CSS: `button[id*="consent"]`},
		{CSS: `button[class*="cookie"]`},
		{CSS: `button[class*="consent"]`},
		{CSS: `button[data-testid*="cookie"]`},
		{CSS: `button[data-testid*="consent"]`},
		{CSS: "button", Text: "Accept"},
		{CSS: "button", Text: "Allow"},
		{CSS: "button", Text: "Agree"},
	}
}

// Dismisser clicks away consent banners.
type Dismisser struct {
	selectors []browser.Selector
	timeout   time.Duration
	pause     time.Duration
	wait      browser.WaitFunc
	logger    *slog.Logger
}

// Option configures a Dismisser.
type Option func(*Dismisser)

// WithTimeout sets the per-selector lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(ds *Dismisser) {
		if d > 0 {
			ds.timeout = d
		}
	}
}

// WithPause sets the pause after a successful click.
func WithPause(d time.Duration) Option {
	return func(ds *Dismisser) {
		if d >= 0 {
			ds.pause = d
		}
	}
}

// WithWait replaces the pause implementation.
func WithWait(wait browser.WaitFunc) Option {
	return func(ds *Dismisser) {
		if wait != nil {
			ds.wait = wait
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ds *Dismisser) {
		if logger != nil {
			ds.logger = logger
		}
	}
}

// New returns a Dismisser using DefaultSelectors.
func New(opts ...Option) *Dismisser {
	ds := &Dismisser{
		selectors: DefaultSelectors(),
		timeout:   DefaultTimeout,
		pause:     DefaultPause,
		wait:      browser.Wait,
		logger:    applog.Discard(),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Dismiss tries each selector in order and clicks the first match.
// Cancellation of ctx stops the search and yields NotFound.
func (d *Dismisser) Dismiss(ctx context.Context, s browser.Session) Outcome {
	for _, sel := range d.selectors {
		if ctx.Err() != nil {
			return NotFound
		}

		err := d.try(ctx, s, sel)
		if err != nil {
			d.logger.Debug("consent selector did not match", "selector", sel.String(), "error", err)
			continue
		}

		d.logger.Debug("consent banner dismissed", "selector", sel.String())
		if err := d.wait(ctx, d.pause); err != nil {
			d.logger.Debug("consent pause interrupted", "error", err)
		}
		return Dismissed
	}
	return NotFound
}

// try looks up and clicks one selector. Driver panics count as a miss.
func (d *Dismisser) try(ctx context.Context, s browser.Session, sel browser.Selector) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during consent lookup: %v", r)
		}
	}()

	el, err := s.FindClickable(ctx, sel, d.timeout)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}
