package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/cookiesnap/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showCookies lists every cookie of a site, not only the counts.
	showCookies bool

	// verbose adds per-target durations and cookie explanations.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowCookies lists individual cookies in site listings.
func WithShowCookies(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showCookies = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs the run result in human-readable format.
func (w *SimpleWriter) WriteRun(result *model.RunResult) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "COOKIESNAP COLLECTION REPORT")

	fmt.Fprintf(&sb, "Run ID:    %s\n", result.RunID)
	fmt.Fprintf(&sb, "Browser:   %s\n", browserLabel(result.Browser))
	fmt.Fprintf(&sb, "Started:   %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Duration:  %s\n", result.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "State:     %s\n", result.State)
	if result.Error != "" {
		fmt.Fprintf(&sb, "Error:     %s\n", result.Error)
	}
	sb.WriteString("\n")

	writeSection(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "  Targets:   %d\n", len(result.Targets))
	fmt.Fprintf(&sb, "  Succeeded: %d\n", result.SuccessCount())
	fmt.Fprintf(&sb, "  Failed:    %d\n", result.FailureCount())
	fmt.Fprintf(&sb, "  Cookies:   %d\n", result.TotalCookies())
	sb.WriteString("\n")

	writeSection(&sb, "TARGETS")
	for _, tr := range result.Ordered() {
		w.writeTarget(&sb, tr)
	}
	sb.WriteString("\n")

	if len(result.Warnings) > 0 {
		writeSection(&sb, "WARNINGS")
		for _, warn := range result.Warnings {
			fmt.Fprintf(&sb, "  [!] %s: %s\n", warn.Target, warn.Message)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeTarget(sb *strings.Builder, tr *model.TargetResult) {
	if !tr.Success {
		fmt.Fprintf(sb, "  [-] %s\n", tr.URL)
		fmt.Fprintf(sb, "      Error: %s\n", tr.Error)
		return
	}

	fmt.Fprintf(sb, "  [+] %s: %d cookie(s), %d third-party\n", tr.URL, tr.Count, tr.ThirdParty)
	if tr.ConsentDismissed {
		sb.WriteString("      Consent banner dismissed\n")
	}
	if tr.Persisted {
		sb.WriteString("      Saved to database\n")
	}
	if w.verbose {
		fmt.Fprintf(sb, "      Took %s\n", tr.Duration.Round(time.Millisecond))
		for _, c := range tr.Cookies {
			w.writeCookie(sb, c)
		}
	}
}

// WriteSites outputs a listing of stored sites.
func (w *SimpleWriter) WriteSites(sites []model.Site) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "COOKIESNAP STORED SITES")

	if len(sites) == 0 {
		sb.WriteString("No sites stored.\n")
		return w.output.Write([]byte(sb.String()))
	}

	now := w.now()
	total := 0
	for _, s := range sites {
		total += s.CookieCount()
		fmt.Fprintf(&sb, "%s\n", s.URL)
		fmt.Fprintf(&sb, "  Updated:     %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&sb, "  Cookies:     %d (%d expired, %d third-party)\n", s.CookieCount(), s.ExpiredCount(now), s.ThirdPartyCount())
		if w.showCookies {
			for _, c := range s.Cookies {
				w.writeCookie(&sb, c)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%d site(s), %d cookie(s)\n", len(sites), total)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeCookie(sb *strings.Builder, c model.Cookie) {
	fmt.Fprintf(sb, "    * %s (domain=%s path=%s)\n", c.Name, c.Domain, c.Path)
	fmt.Fprintf(sb, "      Expires: %s  Flags: %s\n", expiryLabel(c), flagsLabel(c))
	if e := ExplainCookie(c.Name); e != "" {
		fmt.Fprintf(sb, "      Purpose: %s\n", e)
	}
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max((70-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
