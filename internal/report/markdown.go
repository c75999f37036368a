package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/ragcrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation
// and sharing.
//
// Design decision: We use the nao1215/markdown library for tables,
// alerts and mermaid charts instead of formatting strings by hand.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("ragcrawl Report")
	md.PlainText("")
	w.writeCrawl(md, result)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteSession outputs each part of the session that is present.
func (w *MarkdownWriter) WriteSession(session *model.Session) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("ragcrawl Report")
	md.PlainText("")

	w.writeAlert(md, session)
	if session.Crawl != nil {
		w.writeCrawl(md, session.Crawl)
	}
	if session.Ingest != nil {
		w.writeIngest(md, session.Ingest)
	}
	if session.Answer != nil {
		w.writeAnswer(md, session.Answer)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeCrawl writes the crawl property table, the status table and chart
// and the problem pages.
func (w *MarkdownWriter) writeCrawl(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Crawl")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + result.StartURL + "`"},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration().Round(time.Millisecond).String()},
			{"Max Depth", strconv.Itoa(result.MaxDepth)},
			{"Discovered URLs", strconv.Itoa(len(result.Discovered))},
			{"Processed Pages", strconv.Itoa(len(result.Pages))},
		},
	})
	md.PlainText("")

	rows := statusRows(result)
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{row.status.String(), strconv.Itoa(row.count)})
	}
	md.H3("Page Status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Pages"},
		Rows:   tableRows,
	})
	md.PlainText("")

	if len(result.Pages) > 0 {
		w.writePieChart(md, rows)
	}

	problems := problemPages(result)
	if len(problems) == 0 {
		return
	}
	md.H3("Problem Pages")
	md.PlainText("")
	problemRows := make([][]string, len(problems))
	for i, p := range problems {
		problemRows[i] = []string{
			truncateString(p.URL, 60),
			p.Status.String(),
			truncateString(p.Error, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Error"},
		Rows:   problemRows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the non-zero statuses.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rows []statusRow) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Status Distribution"),
		piechart.WithShowData(true),
	)
	for _, row := range rows {
		if row.count > 0 {
			chart.LabelAndIntValue(row.status.String(), uint64(row.count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, session *model.Session) {
	switch {
	case session.Cancelled:
		md.Warning("The run was cancelled. Results are partial.")
	case len(session.StepErrors) > 0:
		md.Cautionf("%d step(s) failed: %s", len(session.StepErrors), strings.Join(session.StepErrors, "; "))
	default:
		return
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeIngest(md *markdown.Markdown, stats *model.IngestStats) {
	md.H2("Ingest")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Collection", "Files", "Chunks"},
		Rows: [][]string{
			{stats.Collection, strconv.Itoa(stats.Files), strconv.Itoa(stats.Chunks)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAnswer(md *markdown.Markdown, answer *model.Answer) {
	md.H2("Answer")
	md.PlainText("")
	md.PlainTextf("**Question:** %s", answer.Question)
	md.PlainText("")

	md.H3("Direct")
	md.PlainText("")
	md.PlainText(answer.Direct)
	md.PlainText("")
	w.writeSources(md, answer.DirectContext)

	if answer.HyDE == "" {
		return
	}
	md.H3("HyDE")
	md.PlainText("")
	md.PlainText(answer.HyDE)
	md.PlainText("")
	if answer.Hypothetical != "" {
		md.Details("Hypothetical answer", answer.Hypothetical)
		md.PlainText("")
	}
	w.writeSources(md, answer.HyDEContext)
}

// writeSources folds the retrieved chunks into a details block.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, hits []model.ScoredText) {
	if len(hits) == 0 {
		return
	}
	lines := make([]string, len(hits))
	for i, hit := range hits {
		text := strings.ReplaceAll(hit.Text, "\n", " ")
		lines[i] = "- " + strconv.FormatFloat(float64(hit.Score), 'f', 3, 32) +
			" `" + hit.Collection + "` " + truncateString(text, 120)
	}
	md.Details("Sources ("+strconv.Itoa(len(hits))+")", strings.Join(lines, "\n"))
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ragcrawl](https://github.com/nao1215/ragcrawl)*")
}
