package crawler

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nao1215/ragcrawl/internal/model"
)

// defaultAllowedPrefix admits every http and https URL.
const defaultAllowedPrefix = "http"

// Admitter decides which discovered links enter the frontier.
//
// A link is admitted when it starts with one of the allowed prefixes,
// its path matches none of the ignore patterns, its depth would not
// exceed maxDepth, and it was absent from the seen set. The seen set
// insert is the last check so that rejected links never occupy it.
type Admitter struct {
	seen           SeenSet
	frontier       *Frontier
	allowed        []string
	ignorePatterns []string
	maxDepth       int
}

// NewAdmitter creates an Admitter. An empty allowed list admits every
// http(s) URL.
func NewAdmitter(seen SeenSet, frontier *Frontier, maxDepth int, allowed, ignorePatterns []string) *Admitter {
	if len(allowed) == 0 {
		allowed = []string{defaultAllowedPrefix}
	}
	return &Admitter{
		seen:           seen,
		frontier:       frontier,
		allowed:        allowed,
		ignorePatterns: ignorePatterns,
		maxDepth:       maxDepth,
	}
}

// Admit pushes every admissible link at depth+1 and returns how many
// were pushed. A seen set failure stops admission for the remaining
// links of this page and is returned.
func (a *Admitter) Admit(ctx context.Context, links []string, depth int) (int, error) {
	if depth+1 > a.maxDepth {
		return 0, nil
	}

	admitted := 0
	for _, link := range links {
		link = NormalizeURL(link)
		if !hasAnyPrefix(link, a.allowed) || a.ignored(link) {
			continue
		}
		added, err := a.seen.Add(ctx, link)
		if err != nil {
			return admitted, err
		}
		if !added {
			continue
		}
		a.frontier.Push(model.FrontierEntry{URL: link, Depth: depth + 1})
		admitted++
	}
	return admitted, nil
}

// NormalizeURL returns the form of rawURL that enters the seen set.
// The fragment is dropped and the scheme and host are lower-cased. One
// trailing slash is stripped, as FindLinks does, so that
// "https://example.com/" and "https://example.com" are the same page.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}

// ignored reports whether the link's path matches an ignore pattern.
func (a *Admitter) ignored(link string) bool {
	if len(a.ignorePatterns) == 0 {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range a.ignorePatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks a URL path against a glob pattern.
//
// Examples:
//   - "/admin/*" matches "/admin" and anything below it
//   - "*.zip" matches any path ending in ".zip"
//   - "/api/v?" matches "/api/v1"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	matched, err := filepath.Match(pattern, path)
	return err == nil && matched
}
