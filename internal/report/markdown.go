package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/cookiesnap/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter

	// showCookies adds a per-site cookie table to site listings.
	showCookies bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownCookies adds per-site cookie tables to site listings.
func WithMarkdownCookies(show bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.showCookies = show
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs the run result in Markdown format.
func (w *MarkdownWriter) WriteRun(result *model.RunResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Cookie Collection Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + result.RunID + "`"},
			{"Browser", browserLabel(result.Browser)},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"State", result.State.String()},
		},
	})
	md.PlainText("")

	w.writeRunSummary(md, result)
	w.writeTargets(md, result)
	w.writeWarnings(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeRunSummary(md *markdown.Markdown, result *model.RunResult) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Targets", strconv.Itoa(len(result.Targets))},
			{"✅ Succeeded", strconv.Itoa(result.SuccessCount())},
			{"❌ Failed", strconv.Itoa(result.FailureCount())},
			{"🍪 Cookies", strconv.Itoa(result.TotalCookies())},
		},
	})
	md.PlainText("")

	if len(result.Targets) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Target Outcomes"),
			piechart.WithShowData(true),
		)
		if n := result.SuccessCount(); n > 0 {
			chart.LabelAndIntValue("Succeeded", uint64(n))
		}
		if n := result.FailureCount(); n > 0 {
			chart.LabelAndIntValue("Failed", uint64(n))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case result.State == model.RunStateInitFailed:
		md.Cautionf("The browser session could not be started: %s", result.Error)
	case result.FailureCount() > 0 && result.SuccessCount() == 0:
		md.Warningf("All %d target(s) failed.", result.FailureCount())
	case result.FailureCount() > 0:
		md.Importantf("%d of %d target(s) failed.", result.FailureCount(), len(result.Targets))
	default:
		md.Tip("Cookies were collected from every target.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeTargets(md *markdown.Markdown, result *model.RunResult) {
	md.H2("Targets")
	md.PlainText("")

	if len(result.Targets) == 0 {
		md.PlainText("No targets.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(result.Targets))
	for _, tr := range result.Ordered() {
		status := "✅"
		detail := "-"
		if !tr.Success {
			status = "❌"
			detail = truncateString(tr.Error, 60)
		}
		saved := "-"
		if tr.Persisted {
			saved = "yes"
		}
		rows = append(rows, []string{
			tr.URL,
			status,
			strconv.Itoa(tr.Count),
			strconv.Itoa(tr.ThirdParty),
			saved,
			detail,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Cookies", "Third-party", "Saved", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, result *model.RunResult) {
	if len(result.Warnings) == 0 {
		return
	}
	md.H2("Warnings")
	md.PlainText("")
	items := make([]string, 0, len(result.Warnings))
	for _, warn := range result.Warnings {
		items = append(items, warn.Target+": "+warn.Message)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// WriteSites outputs the site listing in Markdown format.
func (w *MarkdownWriter) WriteSites(sites []model.Site) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Stored Sites")
	md.PlainText("")

	if len(sites) == 0 {
		md.Note("No sites stored.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	now := w.now()
	rows := make([][]string, 0, len(sites))
	for _, s := range sites {
		rows = append(rows, []string{
			s.URL,
			strconv.Itoa(s.CookieCount()),
			strconv.Itoa(s.ExpiredCount(now)),
			strconv.Itoa(s.ThirdPartyCount()),
			s.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Cookies", "Expired", "Third-party", "Updated"},
		Rows:   rows,
	})
	md.PlainText("")

	if w.showCookies {
		for _, s := range sites {
			w.writeSiteCookies(md, s)
		}
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSiteCookies(md *markdown.Markdown, s model.Site) {
	md.H3(s.URL)
	md.PlainText("")
	if len(s.Cookies) == 0 {
		md.PlainText("No cookies.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		purpose := ExplainCookie(c.Name)
		if purpose == "" {
			purpose = "-"
		}
		rows = append(rows, []string{
			"`" + c.Name + "`",
			c.Domain,
			c.Path,
			expiryLabel(c),
			flagsLabel(c),
			purpose,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Domain", "Path", "Expires", "Flags", "Purpose"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [cookiesnap](https://github.com/nao1215/cookiesnap)*")
}
