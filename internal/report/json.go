package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/ragcrawl/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
//
// Design decision: encoding/json is enough here. The model types carry
// their own json tags and page statuses marshal as names.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
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

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result in JSON format.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	return w.writeJSON(result)
}

// WriteSession outputs the session in JSON format.
func (w *JSONWriter) WriteSession(session *model.Session) (int, error) {
	return w.writeJSON(session)
}

// writeJSON marshals v and writes it followed by a newline.
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

// JSONReport wraps a session with the version that produced it and a
// status summary, so archived reports stay self-describing.
type JSONReport struct {
	// Version is the ragcrawl version that generated this report.
	Version string `json:"version"`

	// Session is the full pipeline session.
	Session *model.Session `json:"session"`

	// StatusCounts maps page status names to counts. Empty when the
	// session did not crawl.
	StatusCounts map[string]int `json:"status_counts,omitempty"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(session *model.Session, version string) *JSONReport {
	report := &JSONReport{
		Version: version,
		Session: session,
	}
	if session.Crawl != nil {
		report.StatusCounts = make(map[string]int, len(model.PageStatuses))
		for _, row := range statusRows(session.Crawl) {
			report.StatusCounts[row.status.String()] = row.count
		}
	}
	return report
}

// FullJSONWriter outputs sessions wrapped in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write wraps the crawl result in a session and writes the full report.
func (w *FullJSONWriter) Write(result *model.CrawlResult) (int, error) {
	session := model.NewSession(result.StartURL, "")
	session.Crawl = result
	return w.WriteSession(session)
}

// WriteSession outputs the session wrapped with metadata.
func (w *FullJSONWriter) WriteSession(session *model.Session) (int, error) {
	return w.writeJSON(NewJSONReport(session, w.version))
}
