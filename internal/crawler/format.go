package crawler

import (
	"fmt"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Format identifies a document format the crawler can extract text and
// links from. The set is closed: adding a format means adding a constant,
// a media type mapping and a handler.
type Format int

const (
	// FormatUnknown is the explicit "no handler" case.
	FormatUnknown Format = iota
	// FormatHTML is text/html.
	FormatHTML
	// FormatPDF is application/pdf.
	FormatPDF
	// FormatDOCX is an Office Open XML word processing document.
	FormatDOCX
)

// Media types recognised by FormatOf.
const (
	MediaTypeHTML = "text/html"
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// String returns the short format name.
func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// FormatOf maps a media type (no parameters) to a Format.
func FormatOf(mediaType string) Format {
	switch mediaType {
	case MediaTypeHTML:
		return FormatHTML
	case MediaTypePDF:
		return FormatPDF
	case MediaTypeDOCX:
		return FormatDOCX
	default:
		return FormatUnknown
	}
}

// Handler extracts plain text and outbound links from one document format.
//
// ParseText must be idempotent: the same document always yields the same
// text. FindLinks returns candidate URLs only; admission into the frontier
// (allow-list, deduplication, depth) is the Admitter's job.
type Handler interface {
	Format() Format
	ParseText(doc *model.Document) (string, error)
	FindLinks(doc *model.Document, localDomain string) ([]string, error)
}

// Registry maps formats to handlers. It is populated once at startup and
// read concurrently by workers afterwards, so it needs no locking.
type Registry struct {
	handlers map[Format]Handler
}

// NewRegistry creates a registry holding the given handlers.
// A later handler for the same format replaces an earlier one.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[Format]Handler, len(handlers))}
	for _, h := range handlers {
		if h.Format() == FormatUnknown {
			continue
		}
		r.handlers[h.Format()] = h
	}
	return r
}

// DefaultRegistry returns a registry with the HTML, PDF and DOCX handlers.
func DefaultRegistry() *Registry {
	return NewRegistry(NewHTMLHandler(), NewPDFHandler(), NewDOCXHandler())
}

// Lookup returns the handler for a media type, or ErrUnsupportedFormat.
func (r *Registry) Lookup(mediaType string) (Handler, error) {
	if h, ok := r.handlers[FormatOf(mediaType)]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
}

// Formats returns the registered formats in declaration order.
func (r *Registry) Formats() []Format {
	var formats []Format
	for _, f := range []Format{FormatHTML, FormatPDF, FormatDOCX} {
		if _, ok := r.handlers[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}
