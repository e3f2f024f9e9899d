package browser

import (
	"context"
	"errors"
	"time"

	"github.com/nao1215/cookiesnap/internal/model"
)

var (
	// ErrElementNotFound is returned by FindClickable when no matching,
	// interactable element appeared within the timeout.
	ErrElementNotFound = errors.New("element not found")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("browser session is closed")
)

// Selector locates an element on the page. CSS is required; when Text is
// set the element must also contain that text (case-insensitive).
type Selector struct {
	CSS  string
	Text string
}

// String returns a readable form used in logs.
func (s Selector) String() string {
	if s.Text == "" {
		return s.CSS
	}
	return s.CSS + ` containing "` + s.Text + `"`
}

// Clickable is an element that can be clicked.
type Clickable interface {
	Click(ctx context.Context) error
}

// Session is one live browser page. Implementations are not safe for
// concurrent use.
type Session interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Cookies returns the cookies visible to the current page.
	Cookies(ctx context.Context) ([]model.Cookie, error)

	// AddCookie injects a cookie into the browser.
	AddCookie(ctx context.Context, c model.Cookie) error

	// Refresh reloads the current page.
	Refresh(ctx context.Context) error

	// FindClickable waits up to timeout for an interactable element
	// matching sel. It returns ErrElementNotFound on timeout.
	FindClickable(ctx context.Context, sel Selector, timeout time.Duration) (Clickable, error)

	// Close releases the page and the browser process.
	Close() error
}
