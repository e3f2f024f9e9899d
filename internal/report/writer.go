package report

import (
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/cookiesnap/internal/model"
)

// RunWriter writes the result of an acquisition run.
type RunWriter interface {
	// WriteRun outputs the run result. It returns the number of bytes
	// written and any error encountered.
	WriteRun(result *model.RunResult) (int, error)
}

// SitesWriter writes a listing of stored sites.
type SitesWriter interface {
	// WriteSites outputs the sites in the given order.
	WriteSites(sites []model.Site) (int, error)
}

// Writer writes both run results and site listings.
type Writer interface {
	RunWriter
	SitesWriter
}

// MultiWriter writes to multiple Writers in order. It stops on the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun outputs the run result to all configured Writers.
func (m *MultiWriter) WriteRun(result *model.RunResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRun(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSites outputs the site listing to all configured Writers.
func (m *MultiWriter) WriteSites(sites []model.Site) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSites(sites)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer

	// now is used to count expired cookies in site listings.
	now func() time.Time
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, now: time.Now}
}

// browserLabel returns a display name such as "Chrome" for a browser kind.
func browserLabel(kind string) string {
	if kind == "" {
		return "-"
	}
	return cases.Title(language.English).String(kind)
}

// expiryLabel describes when a cookie expires.
func expiryLabel(c model.Cookie) string {
	t, ok := c.ExpiresAt()
	if !ok {
		return "session"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

// flagsLabel lists the security attributes of a cookie.
func flagsLabel(c model.Cookie) string {
	flags := make([]string, 0, 3)
	if c.Secure {
		flags = append(flags, "Secure")
	}
	if c.HTTPOnly {
		flags = append(flags, "HttpOnly")
	}
	if c.SameSite != model.SameSiteUnset {
		flags = append(flags, "SameSite="+string(c.SameSite))
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ", ")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
