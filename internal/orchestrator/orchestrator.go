package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/collector"
	applog "github.com/nao1215/cookiesnap/internal/log"
	"github.com/nao1215/cookiesnap/internal/model"
)

// CompletedMessage is the message of the final progress report.
const CompletedMessage = "Collection completed"

// SessionFactory creates the browser session for a run.
// browser.Launcher satisfies it.
type SessionFactory interface {
	NewSession(ctx context.Context) (browser.Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context) (browser.Session, error)

// NewSession calls f.
func (f SessionFactoryFunc) NewSession(ctx context.Context) (browser.Session, error) {
	return f(ctx)
}

// Persister stores the cookie set of a target, replacing what was stored.
// database.CookieDB satisfies it.
type Persister interface {
	Save(ctx context.Context, url string, cookies []model.Cookie) error
}

// CollectFunc visits one target. collector.Collector.Collect satisfies it.
type CollectFunc func(ctx context.Context, session browser.Session, target string, waitTime time.Duration, progress collector.ProgressFunc) (*collector.Result, error)

// RunConfig holds the per-run settings.
type RunConfig struct {
	// WaitTime is the settle interval after each navigation.
	WaitTime time.Duration
	// SaveCookies persists each successful target's cookies.
	SaveCookies bool
}

// Orchestrator runs acquisitions. An Orchestrator is not safe for
// concurrent use; runs are sequential.
type Orchestrator struct {
	factory     SessionFactory
	persister   Persister
	collect     CollectFunc
	logger      *slog.Logger
	browserName string
	newRunID    func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPersister sets the store used when RunConfig.SaveCookies is true.
func WithPersister(p Persister) Option {
	return func(o *Orchestrator) {
		o.persister = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCollector replaces the per-target visit.
func WithCollector(fn CollectFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.collect = fn
		}
	}
}

// WithBrowserName records the browser kind on results.
func WithBrowserName(name string) Option {
	return func(o *Orchestrator) {
		o.browserName = name
	}
}

// New creates an Orchestrator that opens sessions with factory.
func New(factory SessionFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		factory:  factory,
		logger:   applog.Discard(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.collect == nil {
		o.collect = collector.New(collector.WithLogger(o.logger)).Collect
	}
	return o
}

// plannedTarget is one input target after normalization.
type plannedTarget struct {
	key string
	err error
}

func planTargets(targets []string) []plannedTarget {
	planned := make([]plannedTarget, 0, len(targets))
	for _, raw := range targets {
		normalized, err := model.NormalizeTarget(raw)
		if err != nil {
			planned = append(planned, plannedTarget{key: strings.TrimSpace(raw), err: err})
			continue
		}
		planned = append(planned, plannedTarget{key: normalized})
	}
	return planned
}

// Run visits every target in order and returns one outcome per target.
//
// When the session cannot be created every target is recorded as failed and
// a *SetupError is returned with the result. When ctx is cancelled the
// remaining targets are recorded as failed, the result is returned and the
// context error is returned with it. Failures of single targets never make
// Run return an error.
func (o *Orchestrator) Run(ctx context.Context, targets []string, cfg RunConfig, listener ProgressListener) (*model.RunResult, error) {
	result := model.NewRunResult(o.newRunID())
	result.Browser = o.browserName

	planned := planTargets(targets)
	progress := newBandTracker(listener, len(planned))
	logger := o.logger.With("run_id", result.RunID)

	if cfg.SaveCookies && o.persister == nil {
		logger.Warn("saving requested but no cookie store configured")
	}

	if len(planned) == 0 {
		transition(logger, result, model.RunStateCompleted)
		result.FinishedAt = time.Now()
		progress.finish(CompletedMessage)
		return result, nil
	}

	transition(logger, result, model.RunStateInitializing)
	logger.Info("starting cookie collection", "targets", len(planned), "browser", o.browserName)

	session, err := o.factory.NewSession(ctx)
	if err != nil {
		setupErr := &SetupError{Err: err}
		logger.Error("failed to initialize browser", "error", err)
		for _, pt := range planned {
			if pt.err != nil {
				result.Record(model.NewFailureResult(pt.key, pt.err))
				continue
			}
			result.Record(model.NewFailureResult(pt.key, setupErr))
		}
		transition(logger, result, model.RunStateInitFailed)
		result.Error = setupErr.Error()
		result.FinishedAt = time.Now()
		return result, setupErr
	}

	var closeOnce sync.Once
	closeSession := func() {
		closeOnce.Do(func() {
			if cerr := session.Close(); cerr != nil {
				logger.Warn("failed to close browser session", "error", cerr)
			}
		})
	}
	defer closeSession()

	transition(logger, result, model.RunStateReady)
	transition(logger, result, model.RunStateCollecting)

	var runErr error
	for i, pt := range planned {
		if cerr := ctx.Err(); cerr != nil {
			runErr = cerr
			for _, rest := range planned[i:] {
				result.Record(model.NewFailureResult(rest.key, ErrRunCancelled))
			}
			logger.Warn("collection cancelled", "remaining", len(planned)-i)
			break
		}

		progress.report(i, 0, "Starting "+pt.key)

		if pt.err != nil {
			logger.Warn("skipping invalid target", "target", pt.key, "error", pt.err)
			result.Record(model.NewFailureResult(pt.key, pt.err))
			continue
		}

		result.Record(o.processTarget(ctx, logger, session, pt.key, cfg, result, func(p float64, msg string) {
			progress.report(i, p, msg)
		}))
	}

	closeSession()
	transition(logger, result, model.RunStateCompleted)
	result.FinishedAt = time.Now()
	progress.finish(CompletedMessage)

	logger.Info("cookie collection finished",
		"succeeded", result.SuccessCount(),
		"failed", result.FailureCount(),
		"cookie_count", result.TotalCookies(),
		"duration", result.Duration())

	return result, runErr
}

func transition(logger *slog.Logger, run *model.RunResult, to model.RunState) {
	logger.Debug("run state changed", "from", run.State.String(), "to", to.String())
	run.State = to
}

// processTarget visits one target and persists its cookies when configured.
func (o *Orchestrator) processTarget(ctx context.Context, logger *slog.Logger, session browser.Session, target string, cfg RunConfig, run *model.RunResult, progress collector.ProgressFunc) *model.TargetResult {
	started := time.Now()
	logger.Info("collecting cookies", "target", target)

	res, err := o.safeCollect(ctx, session, target, cfg.WaitTime, progress)
	if err != nil {
		logger.Error("failed to collect cookies", "target", target, "error", err)
		tr := model.NewFailureResult(target, err)
		tr.Duration = time.Since(started)
		return tr
	}

	tr := model.NewSuccessResult(target, res.Cookies)
	tr.ConsentDismissed = res.ConsentDismissed
	logger.Info("collected cookies", "target", target, "cookie_count", tr.Count, "third_party", tr.ThirdParty)

	if cfg.SaveCookies && o.persister != nil {
		if perr := o.persister.Save(ctx, target, tr.Cookies); perr != nil {
			pe := &PersistenceError{Target: target, Err: perr}
			logger.Error("failed to persist cookies", "target", target, "error", pe)
			run.Warn(target, pe.Error())
		} else {
			tr.Persisted = true
		}
	}

	tr.Duration = time.Since(started)
	return tr
}

// safeCollect runs the visit and turns a panic into an error.
func (o *Orchestrator) safeCollect(ctx context.Context, session browser.Session, target string, waitTime time.Duration, progress collector.ProgressFunc) (res *collector.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %s: %v", ErrVisitPanicked, target, r)
		}
	}()

	res, err = o.collect(ctx, session, target, waitTime, progress)
	if err == nil && res == nil {
		res = &collector.Result{Cookies: []model.Cookie{}}
	}
	return res, err
}
