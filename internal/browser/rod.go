package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/nao1215/cookiesnap/internal/model"
)

// rodSession is a Session backed by one DevTools page.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *slog.Logger
	closed   bool
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if s.closed {
		return ErrSessionClosed
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for %s to load: %w", url, err)
	}
	return nil
}

func (s *rodSession) Cookies(ctx context.Context) ([]model.Cookie, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	raw, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return FromNetworkCookies(raw), nil
}

func (s *rodSession) AddCookie(ctx context.Context, c model.Cookie) error {
	if s.closed {
		return ErrSessionClosed
	}
	pageURL := ""
	if info, err := s.page.Context(ctx).Info(); err == nil {
		pageURL = info.URL
	}
	if err := s.page.Context(ctx).SetCookies([]*proto.NetworkCookieParam{ToCookieParam(c, pageURL)}); err != nil {
		return fmt.Errorf("failed to add cookie %s: %w", c.Name, err)
	}
	return nil
}

func (s *rodSession) Refresh(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for reload: %w", err)
	}
	return nil
}

func (s *rodSession) FindClickable(ctx context.Context, sel Selector, timeout time.Duration) (Clickable, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	var (
		el  *rod.Element
		err error
	)
	if sel.Text != "" {
		el, err = p.ElementR(sel.CSS, textPattern(sel.Text))
	} else {
		el, err = p.Element(sel.CSS)
	}
	if err != nil {
		return nil, notFoundOr(ctx, err)
	}

	if _, err := el.WaitInteractable(); err != nil {
		return nil, notFoundOr(ctx, err)
	}
	return &rodClickable{el: el}, nil
}

func (s *rodSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if err != nil {
		s.logger.Debug("browser close returned error", "error", err)
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type rodClickable struct {
	el *rod.Element
}

func (c *rodClickable) Click(ctx context.Context) error {
	return c.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// textPattern builds a case-insensitive JS regex literal matching text.
func textPattern(text string) string {
	return "/" + regexp.QuoteMeta(text) + "/i"
}

// notFoundOr maps a lookup timeout to ErrElementNotFound, keeping caller
// cancellation visible.
func notFoundOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var notFound *rod.ElementNotFoundError
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &notFound) {
		return ErrElementNotFound
	}
	return fmt.Errorf("%w: %w", ErrElementNotFound, err)
}
