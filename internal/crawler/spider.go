package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Default spider settings.
const (
	DefaultWorkers   = 2
	DefaultMaxDepth  = 2
	DefaultOutputDir = "."
)

// Fetcher downloads a URL. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Document, error)
}

// Spider is the crawl coordinator. It seeds the frontier with the start
// URL, hands frontier entries to a fixed pool of page workers and stops
// when the frontier is empty and no worker is busy.
//
// Design decision: a single coordinator goroutine is the only consumer
// of the frontier and the only owner of the in-flight counter. Workers
// push discovered links before they report completion, so "frontier
// empty and nothing in flight" is observed only when no further link
// can ever appear.
//
// A Spider holds configuration only; every Crawl call builds fresh crawl
// state, so one Spider can run several crawls, one after another or
// concurrently.
type Spider struct {
	fetcher         Fetcher
	registry        *Registry
	logger          *slog.Logger
	maxDepth        int
	workers         int
	outputDir       string
	allowed         []string
	ignorePatterns  []string
	urlFilter       *regexp.Regexp
	contentFilter   *regexp.Regexp
	skipNonMatching bool
	newSeenSet      func() SeenSet
}

// Option configures a Spider.
type Option func(*Spider)

// WithMaxDepth sets the link depth bound. 0 crawls the start URL only.
func WithMaxDepth(depth int) Option {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithWorkers sets the number of concurrent page workers.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Spider) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithOutputDir sets the directory under which text/ and processed/ are created.
func WithOutputDir(dir string) Option {
	return func(s *Spider) {
		s.outputDir = dir
	}
}

// WithAllowedPrefixes restricts admitted links to URLs starting with one
// of the prefixes. An empty list admits every http(s) URL.
func WithAllowedPrefixes(prefixes []string) Option {
	return func(s *Spider) {
		s.allowed = prefixes
	}
}

// WithIgnorePatterns skips links whose path matches one of the glob
// patterns (for example "/blog/*" or "*.zip").
func WithIgnorePatterns(patterns []string) Option {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithURLFilter records text only for URLs the pattern matches at the
// start of the URL. Links of non-matching pages are still followed.
func WithURLFilter(re *regexp.Regexp) Option {
	return func(s *Spider) {
		s.urlFilter = re
	}
}

// WithContentFilter writes only the "content" group of the first match
// of re in the page text. Use CompileContentFilter to validate the group.
func WithContentFilter(re *regexp.Regexp) Option {
	return func(s *Spider) {
		s.contentFilter = re
	}
}

// WithSkipNonMatching makes a content filter miss a silent skip instead
// of a recorded page error.
func WithSkipNonMatching(skip bool) Option {
	return func(s *Spider) {
		s.skipNonMatching = skip
	}
}

// WithSeenSet shares one seen set across crawls or processes, for
// example a RedisSeenSet. By default every crawl gets a new in-memory set.
func WithSeenSet(seen SeenSet) Option {
	return func(s *Spider) {
		s.newSeenSet = func() SeenSet { return seen }
	}
}

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(s *Spider) {
		s.registry = r
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(s *Spider) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpider creates a Spider that downloads pages with fetcher.
func NewSpider(fetcher Fetcher, opts ...Option) *Spider {
	s := &Spider{
		fetcher:    fetcher,
		registry:   DefaultRegistry(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth:   DefaultMaxDepth,
		workers:    DefaultWorkers,
		outputDir:  DefaultOutputDir,
		newSeenSet: func() SeenSet { return NewShardedSeenSet() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompileContentFilter compiles a content pattern and checks that it
// defines the named group "content".
func CompileContentFilter(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid content pattern: %w", err)
	}
	if re.SubexpIndex(contentGroup) < 0 {
		return nil, ErrMissingContentGroup
	}
	return re, nil
}

// Crawl runs one crawl from startURL and returns every discovered URL
// together with the outcome of each processed page.
//
// Page failures never fail the crawl. Crawl returns an error only for an
// invalid start URL, an output directory that cannot be created, a seen
// set that cannot be seeded or already holds the start URL, or a
// cancelled context; in the last case the partial result is returned
// with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	start, err := url.Parse(startURL)
	if err != nil || (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartURL, startURL)
	}

	// SEEDED
	for _, dir := range []string{TextDirName, ProcessedDirName} {
		if err := ensureDir(filepath.Join(s.outputDir, dir)); err != nil {
			return nil, err
		}
	}
	seen := s.newSeenSet()
	frontier := NewFrontier()
	seed := NormalizeURL(startURL)
	added, err := seen.Add(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed seen set: %w", err)
	}
	if !added {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySeen, seed)
	}
	frontier.Push(model.FrontierEntry{URL: seed, Depth: 0})
	admitter := NewAdmitter(seen, frontier, s.maxDepth, s.allowed, s.ignorePatterns)

	result := model.NewCrawlResult(startURL, s.maxDepth)
	s.logger.Info("crawl started", "start_url", startURL, "max_depth", s.maxDepth, "workers", s.workers)

	// DRAINING
	crawlErr := s.drain(ctx, frontier, admitter, result)

	// DONE
	result.FinishedAt = time.Now()
	members, err := seen.Members(context.WithoutCancel(ctx))
	if err != nil {
		return result, fmt.Errorf("failed to read seen set: %w", err)
	}
	result.SetDiscovered(members)
	s.logger.Info("crawl finished", "discovered", len(result.Discovered), "pages", len(result.Pages), "duration", result.Duration())
	return result, crawlErr
}

// drain runs the worker pool until the frontier is exhausted or ctx is done.
func (s *Spider) drain(ctx context.Context, frontier *Frontier, admitter *Admitter, result *model.CrawlResult) error {
	tasks := make(chan pageTask)
	done := make(chan model.PageOutcome, s.workers)

	var g errgroup.Group
	for range s.workers {
		g.Go(func() error {
			for task := range tasks {
				done <- s.crawlPage(ctx, admitter, task)
			}
			return nil
		})
	}

	var (
		pending  *pageTask
		inFlight int
		err      error
	)
loop:
	for {
		if pending == nil {
			if entry, ok := frontier.TryPop(); ok {
				task, ok := s.prepare(entry, result)
				if ok {
					pending = &task
				}
				continue
			}
			if inFlight == 0 {
				break loop
			}
		}

		// A nil channel blocks forever, so with nothing pending the
		// select only waits for a completion.
		var send chan<- pageTask
		var next pageTask
		if pending != nil {
			send = tasks
			next = *pending
		}

		select {
		case send <- next:
			pending = nil
			inFlight++
		case out := <-done:
			inFlight--
			result.AddPage(out)
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		}
	}

	close(tasks)
	_ = g.Wait() //nolint:errcheck // workers never return an error
	close(done)
	for out := range done {
		result.AddPage(out)
	}
	return err
}

// prepare turns a frontier entry into a task. It returns false when the
// entry cannot be dispatched; the failure is recorded in result.
func (s *Spider) prepare(entry model.FrontierEntry, result *model.CrawlResult) (pageTask, bool) {
	u, err := url.Parse(entry.URL)
	if err != nil || u.Host == "" {
		s.logger.Warn("dropping unparsable URL", "url", entry.URL, "error", err)
		result.AddPage(model.PageOutcome{
			URL:    entry.URL,
			Depth:  entry.Depth,
			Status: model.PageStatusFailed,
			Error:  fmt.Sprintf("%v: unparsable URL", ErrPathSanitization),
		})
		return pageTask{}, false
	}

	task := pageTask{
		entry:        entry,
		localDomain:  u.Host,
		shouldRecord: s.shouldRecord(entry.URL),
	}
	if task.shouldRecord {
		if err := ensureDir(DomainDir(s.outputDir, task.localDomain)); err != nil {
			s.logger.Warn("cannot create domain directory", "url", entry.URL, "error", err)
			task.shouldRecord = false
		}
	}
	return task, true
}

// shouldRecord reports whether the URL filter, anchored at the start of
// the URL, allows recording the page text.
func (s *Spider) shouldRecord(pageURL string) bool {
	if s.urlFilter == nil {
		return true
	}
	loc := s.urlFilter.FindStringIndex(pageURL)
	return loc != nil && loc[0] == 0
}
