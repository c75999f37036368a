package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/nao1215/ragcrawl/internal/model"
)

// clientRenderedMarker is the placeholder text create-react-app style
// pages show when JavaScript is disabled. A page containing it has no
// server-rendered content worth indexing.
const clientRenderedMarker = "You need to enable JavaScript to run this app."

// contentGroup is the named group a content pattern must define.
const contentGroup = "content"

// pageTask is the unit of work the coordinator hands to a worker.
type pageTask struct {
	entry        model.FrontierEntry
	localDomain  string
	shouldRecord bool
}

// crawlPage processes one URL: fetch, classify, record text, follow
// links. It never returns an error; every failure, including a panic in
// a handler, ends up in the returned outcome and the log.
func (s *Spider) crawlPage(ctx context.Context, admitter *Admitter, task pageTask) (out model.PageOutcome) {
	start := time.Now()
	out = model.PageOutcome{URL: task.entry.URL, Depth: task.entry.Depth, Status: model.PageStatusNotRecorded}
	logger := s.logger.With("url", task.entry.URL, "depth", task.entry.Depth)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("page worker panicked", "panic", rec, "stack", string(debug.Stack()))
			out.Status = model.PageStatusFailed
			out.Error = fmt.Sprintf("panic: %v", rec)
		}
		out.Duration = time.Since(start)
	}()

	doc, err := s.fetcher.Fetch(ctx, task.entry.URL)
	if err != nil {
		logger.Warn("fetch failed", "error", err)
		out.Status = model.PageStatusFailed
		out.Error = err.Error()
		return out
	}
	out.MediaType = doc.MediaType()
	out.ContentHash = doc.Hash()

	handler, err := s.registry.Lookup(out.MediaType)
	if err != nil {
		logger.Info("skipping page", "error", err)
		out.Status = model.PageStatusUnsupported
		out.Error = err.Error()
		return out
	}

	if task.shouldRecord {
		if err := s.recordText(handler, doc, task, &out); err != nil {
			if errors.Is(err, ErrClientRenderedPage) {
				logger.Info("skipping client-rendered page")
				return out
			}
			logger.Warn("text extraction failed", "status", out.Status.String(), "error", err)
			out.Error = err.Error()
		}
	}

	if task.entry.Depth >= s.maxDepth {
		return out
	}

	links, err := handler.FindLinks(doc, task.localDomain)
	if err != nil {
		logger.Warn("link extraction failed", "error", err)
		if out.Error == "" {
			out.Error = err.Error()
		}
		return out
	}
	out.LinksFound = len(links)

	admitted, err := admitter.Admit(ctx, links, task.entry.Depth)
	out.LinksAdmitted = admitted
	if err != nil {
		logger.Error("link admission failed", "error", err)
		if out.Error == "" {
			out.Error = err.Error()
		}
	}
	logger.Debug("page processed", "status", out.Status.String(), "links", len(links), "admitted", admitted)
	return out
}

// recordText extracts the page text and writes it under the output
// directory. It sets out.Status and out.TextPath. The returned error is
// ErrClientRenderedPage when the whole page must be skipped; any other
// error leaves link extraction to proceed.
func (s *Spider) recordText(handler Handler, doc *model.Document, task pageTask, out *model.PageOutcome) error {
	path, err := TextPath(s.outputDir, task.localDomain, task.entry.URL)
	if err != nil {
		out.Status = model.PageStatusFailed
		return err
	}

	text, err := handler.ParseText(doc)
	if err != nil {
		out.Status = model.PageStatusFailed
		return fmt.Errorf("failed to extract text: %w", err)
	}

	if strings.Contains(text, clientRenderedMarker) {
		out.Status = model.PageStatusClientRendered
		out.Error = ErrClientRenderedPage.Error()
		return ErrClientRenderedPage
	}

	if s.contentFilter != nil {
		m := s.contentFilter.FindStringSubmatch(text)
		if m == nil {
			if s.skipNonMatching {
				out.Status = model.PageStatusFilterSkipped
				return nil
			}
			out.Status = model.PageStatusFilterMiss
			return ErrContentFilterMiss
		}
		text = m[s.contentFilter.SubexpIndex(contentGroup)]
	}

	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		out.Status = model.PageStatusFailed
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	out.Status = model.PageStatusWritten
	out.TextPath = path
	return nil
}
