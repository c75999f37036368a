package crawler

import (
	"sync"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Frontier is the FIFO of URLs waiting to be crawled. Workers push
// admitted links; the coordinator pops. It is safe for concurrent use.
//
// The frontier never deduplicates: callers push only URLs that were
// newly inserted into the seen set, which is what keeps each URL in
// the frontier at most once.
type Frontier struct {
	mu      sync.Mutex
	entries []model.FrontierEntry
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{}
}

// Push appends an entry.
func (f *Frontier) Push(e model.FrontierEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

// TryPop removes and returns the oldest entry without blocking.
// ok is false when the frontier is empty.
func (f *Frontier) TryPop() (e model.FrontierEntry, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return model.FrontierEntry{}, false
	}
	e = f.entries[0]
	f.entries[0] = model.FrontierEntry{}
	f.entries = f.entries[1:]
	return e, true
}

// Len returns the number of waiting entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
