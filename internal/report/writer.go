package report

import (
	"io"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Writer defines the interface for report output.
// Implementations write crawl results and pipeline sessions in various
// formats.
//
// Design decision: We use an interface so the CLI can send the same
// results to stdout, a file, or both without caring about the format.
type Writer interface {
	// Write outputs a crawl summary.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.CrawlResult) (int, error)

	// WriteSession outputs everything a pipeline run produced: the crawl
	// summary when the session crawled, ingest statistics and the answer.
	WriteSession(session *model.Session) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the crawl summary to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(result *model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSession outputs the session to all configured Writers.
func (m *MultiWriter) WriteSession(session *model.Session) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSession(session)
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
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusRow is one line of a status summary.
type statusRow struct {
	status model.PageStatus
	count  int
}

// statusRows returns the page counts in model.PageStatuses order.
// Zero counts are kept so every report lists the same rows.
func statusRows(result *model.CrawlResult) []statusRow {
	counts := result.CountByStatus()
	rows := make([]statusRow, 0, len(model.PageStatuses))
	for _, s := range model.PageStatuses {
		rows = append(rows, statusRow{status: s, count: counts[s]})
	}
	return rows
}

// problemPages returns the pages that failed or missed a required
// content filter.
func problemPages(result *model.CrawlResult) []model.PageOutcome {
	var pages []model.PageOutcome
	for _, p := range result.Pages {
		if p.Status == model.PageStatusFailed || p.Status == model.PageStatusFilterMiss {
			pages = append(pages, p)
		}
	}
	return pages
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
