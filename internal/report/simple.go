package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/ragcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII rules rather than ANSI
// colors so the output reads the same in a terminal, a file or a pipe.
type SimpleWriter struct {
	baseWriter

	// verbose lists every page instead of only the problem pages.
	verbose bool

	// showContext prints the retrieved chunks under each answer.
	showContext bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every crawled page in the crawl section.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithShowContext prints the chunks each answer was generated from.
func WithShowContext(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showContext = show
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

// Write outputs the crawl summary in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder
	w.writeCrawl(&sb, result)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// WriteSession outputs each part of the session that is present.
func (w *SimpleWriter) WriteSession(session *model.Session) (int, error) {
	var sb strings.Builder

	if session.Crawl != nil {
		w.writeCrawl(&sb, session.Crawl)
	}
	if session.Ingest != nil {
		w.writeIngest(&sb, session.Ingest)
	}
	if session.Answer != nil {
		w.writeAnswer(&sb, session.Answer)
	}
	w.writeProblems(&sb, session)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeCrawl writes the crawl header, the status summary and the page list.
func (w *SimpleWriter) writeCrawl(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          RAGCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:      %s\n", result.StartURL)
	fmt.Fprintf(sb, "Started:        %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", result.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Max Depth:      %d\n", result.MaxDepth)
	fmt.Fprintf(sb, "Discovered:     %d URLs\n", len(result.Discovered))
	fmt.Fprintf(sb, "Processed:      %d pages\n", len(result.Pages))
	sb.WriteString("\n")

	w.writeSection(sb, "PAGE STATUS")
	for _, row := range statusRows(result) {
		fmt.Fprintf(sb, "  %-16s %d\n", strings.ToUpper(row.status.String())+":", row.count)
	}
	sb.WriteString("\n")

	pages := problemPages(result)
	title := "PROBLEM PAGES"
	if w.verbose {
		pages = result.Pages
		title = "PAGES"
	}
	if len(pages) == 0 {
		return
	}

	w.writeSection(sb, title)
	for _, p := range pages {
		fmt.Fprintf(sb, "  [%s] %s (depth %d)\n", p.Status, p.URL, p.Depth)
		if p.TextPath != "" && w.verbose {
			fmt.Fprintf(sb, "    Text: %s\n", p.TextPath)
		}
		if p.Error != "" {
			fmt.Fprintf(sb, "    Error: %s\n", p.Error)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIngest(sb *strings.Builder, stats *model.IngestStats) {
	w.writeSection(sb, "INGEST")
	fmt.Fprintf(sb, "  Collection: %s\n", stats.Collection)
	fmt.Fprintf(sb, "  Files:      %d\n", stats.Files)
	fmt.Fprintf(sb, "  Chunks:     %d\n", stats.Chunks)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAnswer(sb *strings.Builder, answer *model.Answer) {
	w.writeSection(sb, "ANSWER")
	fmt.Fprintf(sb, "Question: %s\n\n", answer.Question)

	sb.WriteString("[direct]\n")
	sb.WriteString(answer.Direct)
	sb.WriteString("\n\n")
	if w.showContext {
		w.writeContext(sb, answer.DirectContext)
	}

	if answer.HyDE == "" {
		return
	}
	sb.WriteString("[hyde]\n")
	sb.WriteString(answer.HyDE)
	sb.WriteString("\n\n")
	if w.showContext {
		w.writeContext(sb, answer.HyDEContext)
	}
}

func (w *SimpleWriter) writeContext(sb *strings.Builder, hits []model.ScoredText) {
	for _, hit := range hits {
		text := strings.ReplaceAll(hit.Text, "\n", " ")
		fmt.Fprintf(sb, "  %.3f %s: %s\n", hit.Score, hit.Collection, truncateString(text, 80))
	}
	if len(hits) > 0 {
		sb.WriteString("\n")
	}
}

// writeProblems lists step errors and cancellation.
func (w *SimpleWriter) writeProblems(sb *strings.Builder, session *model.Session) {
	if len(session.StepErrors) == 0 && !session.Cancelled {
		return
	}

	w.writeSection(sb, "ERRORS")
	if session.Cancelled {
		sb.WriteString("  ! cancelled (partial results)\n")
	}
	for _, e := range session.StepErrors {
		fmt.Fprintf(sb, "  ! %s\n", e)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
