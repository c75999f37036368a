package model

import (
	"slices"
	"time"
)

// CrawlResult is what a finished (or cancelled) crawl returns.
type CrawlResult struct {
	// StartURL is the seed URL of the crawl.
	StartURL string `json:"start_url"`

	// MaxDepth is the depth bound the crawl ran with.
	MaxDepth int `json:"max_depth"`

	// StartedAt and FinishedAt bracket the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Discovered is every URL admitted to the seen set, sorted.
	// It includes URLs whose fetch failed: discovery is not success.
	Discovered []string `json:"discovered"`

	// Pages holds one outcome per URL a worker processed,
	// in completion order.
	Pages []PageOutcome `json:"pages"`
}

// NewCrawlResult creates an empty result for a crawl starting now.
func NewCrawlResult(startURL string, maxDepth int) *CrawlResult {
	return &CrawlResult{
		StartURL:   startURL,
		MaxDepth:   maxDepth,
		StartedAt:  time.Now(),
		Discovered: []string{},
		Pages:      []PageOutcome{},
	}
}

// AddPage appends a page outcome.
func (r *CrawlResult) AddPage(p PageOutcome) {
	r.Pages = append(r.Pages, p)
}

// SetDiscovered stores a sorted copy of urls.
func (r *CrawlResult) SetDiscovered(urls []string) {
	r.Discovered = slices.Clone(urls)
	slices.Sort(r.Discovered)
}

// Duration returns the elapsed crawl time.
func (r *CrawlResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByStatus returns how many pages ended in each status.
func (r *CrawlResult) CountByStatus() map[PageStatus]int {
	counts := make(map[PageStatus]int, len(PageStatuses))
	for _, p := range r.Pages {
		counts[p.Status]++
	}
	return counts
}

// Written returns the outcomes whose text was written to disk.
func (r *CrawlResult) Written() []PageOutcome {
	var written []PageOutcome
	for _, p := range r.Pages {
		if p.Status == PageStatusWritten {
			written = append(written, p)
		}
	}
	return written
}
