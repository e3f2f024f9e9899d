package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/cookiesnap/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Run reports carry the collected cookies including values; site listings
// carry cookie metadata only. Use the export command to get stored values.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written into run reports.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the cookiesnap version recorded in run reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONRunReport wraps a run result with summary metadata.
type JSONRunReport struct {
	// Version is the cookiesnap version that produced the report.
	Version string `json:"version,omitempty"`

	// Summary holds the aggregate counts.
	Summary JSONRunSummary `json:"summary"`

	// Run is the full run result.
	Run *model.RunResult `json:"run"`
}

// JSONRunSummary holds aggregate counts of a run.
type JSONRunSummary struct {
	Targets   int `json:"targets"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cookies   int `json:"cookies"`
}

// WriteRun outputs the run result in JSON format.
func (w *JSONWriter) WriteRun(result *model.RunResult) (int, error) {
	return w.writeJSON(JSONRunReport{
		Version: w.version,
		Summary: JSONRunSummary{
			Targets:   len(result.Targets),
			Succeeded: result.SuccessCount(),
			Failed:    result.FailureCount(),
			Cookies:   result.TotalCookies(),
		},
		Run: result,
	})
}

// JSONSite is the listing entry of one stored site.
type JSONSite struct {
	URL        string       `json:"url"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Cookies    int          `json:"cookies"`
	Expired    int          `json:"expired"`
	ThirdParty int          `json:"third_party"`
	Details    []JSONCookie `json:"details"`
}

// JSONCookie describes a stored cookie without its value.
type JSONCookie struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expiry   *int64 `json:"expiry,omitempty"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"http_only"`
	SameSite string `json:"same_site,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

// WriteSites outputs the site listing in JSON format.
func (w *JSONWriter) WriteSites(sites []model.Site) (int, error) {
	now := w.now()
	out := make([]JSONSite, 0, len(sites))
	for _, s := range sites {
		entry := JSONSite{
			URL:        s.URL,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.UpdatedAt,
			Cookies:    s.CookieCount(),
			Expired:    s.ExpiredCount(now),
			ThirdParty: s.ThirdPartyCount(),
			Details:    make([]JSONCookie, 0, len(s.Cookies)),
		}
		for _, c := range s.Cookies {
			entry.Details = append(entry.Details, JSONCookie{
				Name:     c.Name,
				Domain:   c.Domain,
				Path:     c.Path,
				Expiry:   c.Expiry,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
				SameSite: string(c.SameSite),
				Purpose:  ExplainCookie(c.Name),
			})
		}
		out = append(out, entry)
	}
	return w.writeJSON(out)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}
