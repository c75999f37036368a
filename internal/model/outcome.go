package model

import "time"

// PageStatus is the terminal state of one page worker invocation.
type PageStatus int

const (
	// PageStatusWritten means the extracted text was written to disk.
	PageStatusWritten PageStatus = iota

	// PageStatusNotRecorded means the URL filter excluded the page from
	// text recording. Its links may still have been followed.
	PageStatusNotRecorded

	// PageStatusUnsupported means no content handler is registered for
	// the media type. Neither text nor links were extracted.
	PageStatusUnsupported

	// PageStatusClientRendered means the page only contained the
	// "enable JavaScript" placeholder and was skipped entirely.
	PageStatusClientRendered

	// PageStatusFilterMiss means a required content pattern did not match.
	PageStatusFilterMiss

	// PageStatusFilterSkipped means the content pattern did not match and
	// non-matching pages are configured to be skipped silently.
	PageStatusFilterSkipped

	// PageStatusFailed means fetching or parsing failed.
	PageStatusFailed
)

// PageStatuses lists every status in declaration order.
// Reports iterate it to print stable summaries.
var PageStatuses = []PageStatus{
	PageStatusWritten,
	PageStatusNotRecorded,
	PageStatusUnsupported,
	PageStatusClientRendered,
	PageStatusFilterMiss,
	PageStatusFilterSkipped,
	PageStatusFailed,
}

// String returns the status name used in reports and the crawl database.
func (s PageStatus) String() string {
	switch s {
	case PageStatusWritten:
		return "written"
	case PageStatusNotRecorded:
		return "not_recorded"
	case PageStatusUnsupported:
		return "unsupported"
	case PageStatusClientRendered:
		return "client_rendered"
	case PageStatusFilterMiss:
		return "filter_miss"
	case PageStatusFilterSkipped:
		return "filter_skipped"
	case PageStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParsePageStatus is the inverse of PageStatus.String.
// Unknown names map to PageStatusFailed.
func ParsePageStatus(s string) PageStatus {
	for _, status := range PageStatuses {
		if status.String() == s {
			return status
		}
	}
	return PageStatusFailed
}

// MarshalText implements encoding.TextMarshaler so statuses appear by
// name in JSON reports.
func (s PageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PageStatus) UnmarshalText(b []byte) error {
	*s = ParsePageStatus(string(b))
	return nil
}

// PageOutcome records what happened to a single crawled URL.
type PageOutcome struct {
	// URL is the crawled URL.
	URL string `json:"url"`

	// Depth is the link depth the URL was crawled at.
	Depth int `json:"depth"`

	// MediaType is the response media type, empty when the fetch failed.
	MediaType string `json:"media_type,omitempty"`

	// Status is the terminal state of the page.
	Status PageStatus `json:"status"`

	// TextPath is the file the extracted text was written to.
	TextPath string `json:"text_path,omitempty"`

	// ContentHash is the SHA3-256 digest of the response body.
	ContentHash string `json:"content_hash,omitempty"`

	// LinksFound is the number of candidate links the handler extracted.
	LinksFound int `json:"links_found"`

	// LinksAdmitted is the number of those links that entered the frontier.
	LinksAdmitted int `json:"links_admitted"`

	// Error describes the failure for PageStatusFailed and PageStatusFilterMiss,
	// and non-fatal text step failures for other statuses.
	Error string `json:"error,omitempty"`

	// Duration is the wall time spent processing the page.
	Duration time.Duration `json:"duration"`
}
