package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/model"
)

// fakeClickable records clicks and can fail.
type fakeClickable struct {
	clicked  int
	clickErr error
}

func (c *fakeClickable) Click(_ context.Context) error {
	c.clicked++
	return c.clickErr
}

// fakeSession answers FindClickable from a script keyed by selector string.
type fakeSession struct {
	elements map[string]*fakeClickable
	panicOn  string
	lookups  []string
	timeouts []time.Duration
}

func (s *fakeSession) Navigate(context.Context, string) error          { return nil }
func (s *fakeSession) Cookies(context.Context) ([]model.Cookie, error) { return nil, nil }
func (s *fakeSession) AddCookie(context.Context, model.Cookie) error   { return nil }
func (s *fakeSession) Refresh(context.Context) error                   { return nil }
func (s *fakeSession) Close() error                                    { return nil }

func (s *fakeSession) FindClickable(_ context.Context, sel browser.Selector, timeout time.Duration) (browser.Clickable, error) {
	s.lookups = append(s.lookups, sel.String())
	s.timeouts = append(s.timeouts, timeout)
	if sel.String() == s.panicOn {
		panic("driver exploded")
	}
	if el, ok := s.elements[sel.String()]; ok {
		return el, nil
	}
	return nil, browser.ErrElementNotFound
}

// noWait records pauses without sleeping.
type noWait struct {
	calls []time.Duration
}

func (w *noWait) wait(_ context.Context, d time.Duration) error {
	w.calls = append(w.calls, d)
	return nil
}

// TestDismiss tests the selector strategy.
func TestDismiss(t *testing.T) {
	t.Parallel()

	t.Run("no banner returns NotFound after trying every selector", func(t *testing.T) {
		t.Parallel()

		s := &fakeSession{}
		w := &noWait{}
		got := New(WithWait(w.wait)).Dismiss(context.Background(), s)

		if got != NotFound {
			t.Errorf("expected NotFound, got %v", got)
		}
		if len(s.lookups) != len(DefaultSelectors()) {
			t.Errorf("expected %d lookups, got %d", len(DefaultSelectors()), len(s.lookups))
		}
		if len(w.calls) != 0 {
			t.Error("expected no pause when nothing was clicked")
		}
	})

	t.Run("first matching selector is clicked and search stops", func(t *testing.T) {
		t.Parallel()

		btn := &fakeClickable{}
		s := &fakeSession{elements: map[string]*fakeClickable{
			`button[class*="cookie"]`:    btn,
			`button containing "Accept"`: {},
		}}
		w := &noWait{}
		got := New(WithWait(w.wait), WithPause(time.Second)).Dismiss(context.Background(), s)

		if got != Dismissed {
			t.Fatalf("expected Dismissed, got %v", got)
		}
		if btn.clicked != 1 {
			t.Errorf("expected one click, got %d", btn.clicked)
		}
		if len(s.lookups) != 3 {
			t.Errorf("expected search to stop at third selector, got %v", s.lookups)
		}
		if len(w.calls) != 1 || w.calls[0] != time.Second {
			t.Errorf("expected one 1s pause, got %v", w.calls)
		}
	})

	t.Run("text selector matches when attribute selectors miss", func(t *testing.T) {
		t.Parallel()

		btn := &fakeClickable{}
		s := &fakeSession{elements: map[string]*fakeClickable{`button containing "Agree"`: btn}}
		w := &noWait{}
		if got := New(WithWait(w.wait)).Dismiss(context.Background(), s); got != Dismissed {
			t.Errorf("expected Dismissed, got %v", got)
		}
		if btn.clicked != 1 {
			t.Error("expected Agree button to be clicked")
		}
	})

	t.Run("click failure moves on to next selector", func(t *testing.T) {
		t.Parallel()

		broken := &fakeClickable{clickErr: errors.New("element detached")}
		good := &fakeClickable{}
		s := &fakeSession{elements: map[string]*fakeClickable{
			`button[id*="cookie"]`:  broken,
			`button[id*="consent"]`: good,
		}}
		w := &noWait{}
		if got := New(WithWait(w.wait)).Dismiss(context.Background(), s); got != Dismissed {
			t.Errorf("expected Dismissed, got %v", got)
		}
		if good.clicked != 1 {
			t.Error("expected second selector to be clicked")
		}
	})

	t.Run("driver panic is swallowed", func(t *testing.T) {
		t.Parallel()

		s := &fakeSession{panicOn: `button[id*="cookie"]`}
		w := &noWait{}
		if got := New(WithWait(w.wait)).Dismiss(context.Background(), s); got != NotFound {
			t.Errorf("expected NotFound, got %v", got)
		}
		if len(s.lookups) != len(DefaultSelectors()) {
			t.Errorf("expected search to continue after panic, got %d lookups", len(s.lookups))
		}
	})

	t.Run("each lookup uses the configured timeout", func(t *testing.T) {
		t.Parallel()

		s := &fakeSession{}
		w := &noWait{}
		New(WithWait(w.wait), WithTimeout(250*time.Millisecond)).Dismiss(context.Background(), s)

		for _, d := range s.timeouts {
			if d != 250*time.Millisecond {
				t.Fatalf("expected 250ms timeout, got %v", d)
			}
		}
	})

	t.Run("default timeout is five seconds", func(t *testing.T) {
		t.Parallel()

		s := &fakeSession{}
		w := &noWait{}
		New(WithWait(w.wait)).Dismiss(context.Background(), s)
		if s.timeouts[0] != 5*time.Second {
			t.Errorf("expected 5s, got %v", s.timeouts[0])
		}
	})

	t.Run("cancelled context stops the search", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := &fakeSession{}
		w := &noWait{}
		if got := New(WithWait(w.wait)).Dismiss(ctx, s); got != NotFound {
			t.Errorf("expected NotFound, got %v", got)
		}
		if len(s.lookups) != 0 {
			t.Errorf("expected no lookups, got %v", s.lookups)
		}
	})
}

// TestOutcomeString tests outcome names.
func TestOutcomeString(t *testing.T) {
	t.Parallel()

	if Dismissed.String() != "dismissed" || NotFound.String() != "not found" {
		t.Errorf("unexpected names: %q %q", Dismissed, NotFound)
	}
}
