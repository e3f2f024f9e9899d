package pipeline

import (
	"context"
	"time"

	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/consent"
	"github.com/nao1215/cookiesnap/internal/model"
)

// Step names.
const (
	StepNavigate      = "navigate"
	StepSettle        = "settle"
	StepConsent       = "consent"
	StepDynamicSettle = "dynamic_settle"
	StepReadCookies   = "read_cookies"
)

// NavigateStep loads the visit's target.
type NavigateStep struct {
	session browser.Session
}

// NewNavigateStep creates a NavigateStep.
func NewNavigateStep(session browser.Session) *NavigateStep {
	return &NavigateStep{session: session}
}

// Name returns the step name.
func (s *NavigateStep) Name() string { return StepNavigate }

// Do navigates to visit.Target.
func (s *NavigateStep) Do(ctx context.Context, visit *model.Visit) error {
	if err := s.session.Navigate(ctx, visit.Target); err != nil {
		return err
	}
	visit.Navigated = true
	return nil
}

// SettleStep waits so that scripts can set their cookies. A SettleStep
// created with NewSettleStep waits for the visit's WaitTime; one created with
// NewFixedSettleStep waits for a fixed duration.
type SettleStep struct {
	name  string
	fixed *time.Duration
	wait  browser.WaitFunc
}

// NewSettleStep waits for visit.WaitTime.
func NewSettleStep(wait browser.WaitFunc) *SettleStep {
	return &SettleStep{name: StepSettle, wait: orDefaultWait(wait)}
}

// NewFixedSettleStep waits for d, independent of the visit.
func NewFixedSettleStep(d time.Duration, wait browser.WaitFunc) *SettleStep {
	return &SettleStep{name: StepDynamicSettle, fixed: &d, wait: orDefaultWait(wait)}
}

func orDefaultWait(wait browser.WaitFunc) browser.WaitFunc {
	if wait == nil {
		return browser.Wait
	}
	return wait
}

// Name returns the step name.
func (s *SettleStep) Name() string { return s.name }

// Do blocks for the settle interval or until ctx is cancelled.
func (s *SettleStep) Do(ctx context.Context, visit *model.Visit) error {
	d := visit.WaitTime
	if s.fixed != nil {
		d = *s.fixed
	}
	return s.wait(ctx, d)
}

// Dismisser is the consent capability used by ConsentStep.
type Dismisser interface {
	Dismiss(ctx context.Context, s browser.Session) consent.Outcome
}

// ConsentStep tries to dismiss a consent banner. It never fails.
type ConsentStep struct {
	session   browser.Session
	dismisser Dismisser
}

// NewConsentStep creates a ConsentStep.
func NewConsentStep(session browser.Session, dismisser Dismisser) *ConsentStep {
	return &ConsentStep{session: session, dismisser: dismisser}
}

// Name returns the step name.
func (s *ConsentStep) Name() string { return StepConsent }

// Do records whether a banner was dismissed.
func (s *ConsentStep) Do(ctx context.Context, visit *model.Visit) error {
	visit.ConsentDismissed = s.dismisser.Dismiss(ctx, s.session) == consent.Dismissed
	return nil
}

// ReadCookiesStep reads the session's cookies into the visit.
type ReadCookiesStep struct {
	session browser.Session
}

// NewReadCookiesStep creates a ReadCookiesStep.
func NewReadCookiesStep(session browser.Session) *ReadCookiesStep {
	return &ReadCookiesStep{session: session}
}

// Name returns the step name.
func (s *ReadCookiesStep) Name() string { return StepReadCookies }

// Do stores the cookie set on the visit. A nil set is stored as empty.
func (s *ReadCookiesStep) Do(ctx context.Context, visit *model.Visit) error {
	cookies, err := s.session.Cookies(ctx)
	if err != nil {
		return err
	}
	if cookies == nil {
		cookies = []model.Cookie{}
	}
	visit.Cookies = cookies
	return nil
}
