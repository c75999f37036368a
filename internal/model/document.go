package model

import (
	"encoding/hex"
	"mime"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Document is a fetched resource handed to a content handler.
// It lives for a single page worker invocation and is never persisted.
//
// Design decision: the raw Content-Type header is kept next to the parsed
// media type because the HTML handler needs the charset parameter while
// handler dispatch only looks at the media type.
type Document struct {
	// URL is the URL the document was requested from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains the HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the raw Content-Type header value, parameters included.
	ContentType string `json:"content_type"`

	// Body is the response body, capped by the fetcher's body size limit.
	Body []byte `json:"-"`
}

// MediaType returns the Content-Type without parameters, lower-cased:
// "text/html; charset=utf-8" becomes "text/html".
func (d *Document) MediaType() string {
	return MediaType(d.ContentType)
}

// Hash returns the hex encoded SHA3-256 digest of the body,
// or an empty string for an empty body.
func (d *Document) Hash() string {
	if len(d.Body) == 0 {
		return ""
	}
	sum := sha3.Sum256(d.Body)
	return hex.EncodeToString(sum[:])
}

// MediaType extracts the media type from a Content-Type header value.
// Malformed parameters are tolerated: everything before the first ';'
// is used as the media type.
func MediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
