package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ragcrawl/internal/model"
)

// BatchProcessor runs one pipeline per start URL concurrently.
//
// Design decision: each crawl gets a fresh pipeline from the factory, and
// with it a fresh seen set, so crawls of different sites never suppress
// each other's pages.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each start URL.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of crawls running at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 2 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs a pipeline for every start URL and returns the
// sessions in input order. A failed pipeline does not stop the others;
// its errors are in the session. The returned error is non-nil only on
// cancellation. Sessions of URLs that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, startURLs []string) ([]*model.Session, error) {
	bp.logger.Info("starting batch", "total", len(startURLs), "concurrency", bp.concurrency)
	startTime := time.Now()

	sessions := make([]*model.Session, len(startURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, startURL := range startURLs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("processing", "start_url", startURL, "index", i+1, "total", len(startURLs))

			session := model.NewSession(startURL, "")
			err := bp.pipelineFactory().Execute(ctx, session)
			sessions[i] = session

			if err != nil {
				bp.logger.Warn("pipeline failed", "start_url", startURL, "error", err)
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete", "total", len(startURLs), "elapsed", time.Since(startTime))
	return sessions, err
}
