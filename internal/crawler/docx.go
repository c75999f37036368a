package crawler

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Part names inside a .docx package.
const (
	docxDocumentPart = "word/document.xml"
	docxRelsPart     = "word/_rels/document.xml.rels"
	hyperlinkRelType = "/hyperlink"
)

// DOCXHandler extracts text and hyperlinks from Office Open XML documents.
//
// Design decision: the package is read with archive/zip and the parts are
// queried with xmlquery instead of a full DOCX object model. Only the body
// element order, paragraph text and table cells matter for retrieval, and
// those are a handful of element names in word/document.xml.
type DOCXHandler struct{}

// NewDOCXHandler creates a DOCXHandler.
func NewDOCXHandler() *DOCXHandler {
	return &DOCXHandler{}
}

// Format implements Handler.
func (h *DOCXHandler) Format() Format {
	return FormatDOCX
}

// ParseText renders the document body in order. A paragraph becomes its
// text followed by a blank line. A table becomes one "|a|b|" line per row
// where every cell is left-aligned and padded to the widest cell of its
// column, so the layout does not depend on the order cells are visited.
func (h *DOCXHandler) ParseText(doc *model.Document) (string, error) {
	root, err := readDOCXPart(doc, docxDocumentPart)
	if err != nil {
		return "", err
	}
	body := findChild(findChild(root, "document"), "body")
	if body == nil {
		return "", fmt.Errorf("no document body in %s", doc.URL)
	}

	var sb strings.Builder
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		switch n.Data {
		case "p":
			sb.WriteString(paragraphText(n))
			sb.WriteString("\n\n")
		case "tbl":
			sb.WriteString(renderTable(n))
		}
	}
	return sb.String(), nil
}

// FindLinks returns the targets of the hyperlink relationships of the
// main document part, deduplicated and sorted.
func (h *DOCXHandler) FindLinks(doc *model.Document, _ string) ([]string, error) {
	root, err := readDOCXPart(doc, docxRelsPart)
	if err != nil {
		return nil, err
	}
	rels := findChild(root, "Relationships")
	if rels == nil {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	for n := rels.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || n.Data != "Relationship" {
			continue
		}
		if !strings.HasSuffix(attrValue(n, "Type"), hyperlinkRelType) {
			continue
		}
		if target := strings.TrimSpace(attrValue(n, "Target")); target != "" {
			seen[target] = struct{}{}
		}
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	slices.Sort(links)
	return links, nil
}

// renderTable lays a w:tbl out as pipe separated rows.
func renderTable(tbl *xmlquery.Node) string {
	var rows [][]string
	var widths []int
	for tr := tbl.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != xmlquery.ElementNode || tr.Data != "tr" {
			continue
		}
		var cells []string
		for tc := tr.FirstChild; tc != nil; tc = tc.NextSibling {
			if tc.Type != xmlquery.ElementNode || tc.Data != "tc" {
				continue
			}
			text := strings.ReplaceAll(cellText(tc), "\n", " ")
			col := len(cells)
			if col == len(widths) {
				widths = append(widths, 0)
			}
			widths[col] = max(widths[col], utf8.RuneCountInString(text))
			cells = append(cells, text)
		}
		rows = append(rows, cells)
	}

	var sb strings.Builder
	for _, cells := range rows {
		sb.WriteString("|")
		for col, text := range cells {
			sb.WriteString(text)
			sb.WriteString(strings.Repeat(" ", widths[col]-utf8.RuneCountInString(text)))
			sb.WriteString("|")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// cellText joins the paragraphs of a table cell with newlines.
func cellText(tc *xmlquery.Node) string {
	var paragraphs []string
	for n := tc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode && n.Data == "p" {
			paragraphs = append(paragraphs, paragraphText(n))
		}
	}
	return strings.Join(paragraphs, "\n")
}

// paragraphText concatenates the runs of a paragraph, including runs
// nested in hyperlinks. Tabs and breaks are kept as whitespace.
func paragraphText(p *xmlquery.Node) string {
	var sb strings.Builder
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			switch c.Data {
			case "t":
				sb.WriteString(c.InnerText())
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			default:
				walk(c)
			}
		}
	}
	walk(p)
	return sb.String()
}

// readDOCXPart opens the zip package and parses one XML part.
func readDOCXPart(doc *model.Document, name string) (*xmlquery.Node, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Body), int64(len(doc.Body)))
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX %s: %w", doc.URL, err)
	}
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("missing part %s in %s: %w", name, doc.URL, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s in %s: %w", name, doc.URL, err)
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s in %s: %w", name, doc.URL, err)
	}
	return root, nil
}

// findChild returns the first element child of n with the given local name.
func findChild(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return c
		}
	}
	return nil
}

// attrValue returns the value of the attribute with the given local name.
func attrValue(n *xmlquery.Node, local string) string {
	for _, attr := range n.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}
