package crawler

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/ragcrawl/internal/model"
)

// absoluteHTTPURL matches links that are already absolute http(s) URLs.
var absoluteHTTPURL = regexp.MustCompile(`^https?://.+$`)

// droppedLinkPrefixes are hrefs that never point at a crawlable document.
var droppedLinkPrefixes = []string{"#", "mailto:", "tel:", "javascript:", "data:"}

// HTMLHandler extracts visible text and anchor links from HTML pages.
//
// Design decision: the page is parsed with golang.org/x/net/html after
// charset detection and then wrapped in a goquery document. x/net/html
// handles the malformed markup common on the web, and goquery gives a
// compact selector API for dropping non-visible elements and collecting
// anchors.
type HTMLHandler struct{}

// NewHTMLHandler creates an HTMLHandler.
func NewHTMLHandler() *HTMLHandler {
	return &HTMLHandler{}
}

// Format implements Handler.
func (h *HTMLHandler) Format() Format {
	return FormatHTML
}

// ParseText returns the text content of the page with script and style
// elements removed. noscript content is kept: it is what a client-side
// rendered app shows to a crawler, and the page worker relies on seeing it.
func (h *HTMLHandler) ParseText(doc *model.Document) (string, error) {
	d, err := parseHTML(doc)
	if err != nil {
		return "", err
	}
	d.Find("script, style, template").Remove()
	return d.Text(), nil
}

// FindLinks returns the deduplicated, sorted anchor targets of the page.
//
// Rewriting rules, applied to each trimmed href:
//   - absolute http(s) URLs are kept as they are
//   - "//host/path" becomes "https://host/path"
//   - "/path" becomes "https://{localDomain}/path"
//   - fragments, mailto:, tel:, javascript: and data: links are dropped
//   - any other value is taken relative to the site root of localDomain
//
// A single trailing slash is removed so "/docs" and "/docs/" are one URL.
func (h *HTMLHandler) FindLinks(doc *model.Document, localDomain string) ([]string, error) {
	d, err := parseHTML(doc)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	d.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link := rewriteLink(strings.TrimSpace(href), localDomain); link != "" {
			seen[link] = struct{}{}
		}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	slices.Sort(links)
	return links, nil
}

// rewriteLink applies the FindLinks rules to one href. It returns "" for
// links that should be dropped.
func rewriteLink(href, localDomain string) string {
	if href == "" {
		return ""
	}

	href, _, _ = strings.Cut(href, "#")
	if href == "" {
		return ""
	}

	var link string
	switch {
	case absoluteHTTPURL.MatchString(href):
		link = href
	case strings.HasPrefix(href, "//"):
		link = "https:" + href
	case strings.HasPrefix(href, "/"):
		link = "https://" + localDomain + "/" + strings.TrimPrefix(href, "/")
	case hasAnyPrefix(strings.ToLower(href), droppedLinkPrefixes):
		return ""
	default:
		link = "https://" + localDomain + "/" + href
	}

	return strings.TrimSuffix(link, "/")
}

// parseHTML decodes the body using the charset from the Content-Type
// header (or sniffed from the content) and parses it.
func parseHTML(doc *model.Document) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(doc.Body), doc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", doc.URL, err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML of %s: %w", doc.URL, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
