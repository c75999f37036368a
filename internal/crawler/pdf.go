package crawler

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nao1215/ragcrawl/internal/model"
)

// PDFHandler extracts page text and link annotation targets from PDFs.
// Links are taken as written in the document; a PDF has no notion of a
// local domain, so nothing is rewritten.
type PDFHandler struct{}

// NewPDFHandler creates a PDFHandler.
func NewPDFHandler() *PDFHandler {
	return &PDFHandler{}
}

// Format implements Handler.
func (h *PDFHandler) Format() Format {
	return FormatPDF
}

// ParseText concatenates the plain text of every page in order.
// Pages whose content stream cannot be decoded are skipped.
func (h *PDFHandler) ParseText(doc *model.Document) (text string, err error) {
	r, err := openPDF(doc)
	if err != nil {
		return "", err
	}
	defer recoverPDF(doc.URL, &err)

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

// FindLinks returns the URI actions of all link annotations, deduplicated
// and sorted.
func (h *PDFHandler) FindLinks(doc *model.Document, _ string) (links []string, err error) {
	r, err := openPDF(doc)
	if err != nil {
		return nil, err
	}
	defer recoverPDF(doc.URL, &err)

	seen := make(map[string]struct{})
	for i := 1; i <= r.NumPage(); i++ {
		annots := r.Page(i).V.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			annot := annots.Index(j)
			if annot.Key("Subtype").Name() != "Link" {
				continue
			}
			uri := annot.Key("A").Key("URI")
			if uri.Kind() != pdf.String {
				continue
			}
			link := strings.TrimSpace(uri.RawString())
			if link == "" || hasAnyPrefix(strings.ToLower(link), droppedLinkPrefixes) {
				continue
			}
			seen[link] = struct{}{}
		}
	}

	links = make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	slices.Sort(links)
	return links, nil
}

func openPDF(doc *model.Document) (r *pdf.Reader, err error) {
	defer recoverPDF(doc.URL, &err)
	r, err = pdf.NewReader(bytes.NewReader(doc.Body), int64(len(doc.Body)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", doc.URL, err)
	}
	return r, nil
}

// recoverPDF turns a panic inside the PDF library into an error.
// The library panics on some malformed cross reference tables.
func recoverPDF(docURL string, err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("malformed PDF %s: %v", docURL, rec)
	}
}
