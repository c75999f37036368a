// Package report writes crawl results and pipeline sessions.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter and FullJSONWriter: JSON for tooling and archives
//   - MarkdownWriter: Markdown with tables and a mermaid status chart
//
// All of them implement Writer and can be combined with MultiWriter.
package report
