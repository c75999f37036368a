package crawler

import "errors"

// Page-level errors never stop a crawl: the page worker records them in
// the page outcome, logs them, and moves on. ErrInvalidStartURL and
// ErrAlreadySeen are returned by Spider.Crawl before anything is fetched.
var (
	// ErrUnsupportedFormat is returned by Registry.Lookup when no handler
	// is registered for a media type. Text and links are both skipped.
	ErrUnsupportedFormat = errors.New("unsupported content format")

	// ErrClientRenderedPage marks a page whose only content is the
	// "enable JavaScript" placeholder of a client-side rendered app.
	ErrClientRenderedPage = errors.New("page requires client-side rendering")

	// ErrContentFilterMiss is recorded when the content pattern does not
	// match a page's text and non-matching pages are not skipped silently.
	ErrContentFilterMiss = errors.New("content pattern did not match")

	// ErrPathSanitization is returned when a URL cannot be turned into a
	// usable output file name.
	ErrPathSanitization = errors.New("cannot derive output path from URL")

	// ErrInvalidStartURL is returned by Spider.Crawl for a start URL that is
	// not an absolute http(s) URL.
	ErrInvalidStartURL = errors.New("invalid start URL")

	// ErrAlreadySeen is returned by Spider.Crawl when the seen set already
	// holds the start URL. It happens with a shared seen set that an
	// earlier crawl filled; reset the set to crawl again.
	ErrAlreadySeen = errors.New("start URL already crawled")

	// ErrMissingContentGroup is returned when a content pattern has no
	// named group "content".
	ErrMissingContentGroup = errors.New(`content pattern must define a named group "content"`)
)
