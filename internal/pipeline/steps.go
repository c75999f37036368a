package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/ragcrawl/internal/model"
)

// Crawler runs one crawl. *crawler.Spider implements it.
type Crawler interface {
	Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error)
}

// Recorder persists a crawl. *database.CrawlDB implements it.
type Recorder interface {
	SaveCrawl(ctx context.Context, result *model.CrawlResult) (int64, error)
}

// Ingester moves crawled text into the vector store. *rag.Ingester implements it.
type Ingester interface {
	Ingest(ctx context.Context) (*model.IngestStats, error)
}

// Asker answers a question. *rag.Asker implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (*model.Answer, error)
}

// ErrMissingInput is returned when a step's input is absent from the session.
var ErrMissingInput = errors.New("missing step input")

// CrawlStep crawls session.StartURL and stores the result in session.Crawl.
type CrawlStep struct {
	crawler Crawler
	logger  *slog.Logger
}

// NewCrawlStep creates a CrawlStep.
func NewCrawlStep(c Crawler, logger *slog.Logger) *CrawlStep {
	return &CrawlStep{crawler: c, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl. A cancelled crawl still stores its partial result.
func (s *CrawlStep) Do(ctx context.Context, session *model.Session) error {
	if session.StartURL == "" {
		return fmt.Errorf("%w: start URL", ErrMissingInput)
	}
	result, err := s.crawler.Crawl(ctx, session.StartURL)
	if result != nil {
		session.Crawl = result
		counts := result.CountByStatus()
		s.logger.Info("crawl finished",
			"start_url", session.StartURL,
			"discovered", len(result.Discovered),
			"written", counts[model.PageStatusWritten],
			"failed", counts[model.PageStatusFailed],
		)
	}
	return err
}

// RecordStep saves session.Crawl to the crawl history.
type RecordStep struct {
	recorder Recorder
	logger   *slog.Logger
}

// NewRecordStep creates a RecordStep.
func NewRecordStep(r Recorder, logger *slog.Logger) *RecordStep {
	return &RecordStep{recorder: r, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return "record"
}

// Do executes the record step.
func (s *RecordStep) Do(ctx context.Context, session *model.Session) error {
	if session.Crawl == nil {
		return fmt.Errorf("%w: crawl result", ErrMissingInput)
	}
	id, err := s.recorder.SaveCrawl(ctx, session.Crawl)
	if err != nil {
		return err
	}
	session.CrawlID = id
	s.logger.Debug("crawl recorded", "id", id)
	return nil
}

// IngestStep embeds pending crawled text into the vector store.
type IngestStep struct {
	ingester Ingester
	logger   *slog.Logger
}

// NewIngestStep creates an IngestStep.
func NewIngestStep(i Ingester, logger *slog.Logger) *IngestStep {
	return &IngestStep{ingester: i, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *IngestStep) Name() string {
	return "ingest"
}

// Do executes the ingest. Stats are stored even when some files failed.
func (s *IngestStep) Do(ctx context.Context, session *model.Session) error {
	stats, err := s.ingester.Ingest(ctx)
	if stats != nil {
		session.Ingest = stats
		s.logger.Info("ingest finished", "files", stats.Files, "chunks", stats.Chunks, "collection", stats.Collection)
	}
	return err
}

// AskStep answers session.Question.
type AskStep struct {
	asker  Asker
	logger *slog.Logger
}

// NewAskStep creates an AskStep.
func NewAskStep(a Asker, logger *slog.Logger) *AskStep {
	return &AskStep{asker: a, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *AskStep) Name() string {
	return "ask"
}

// Do executes the ask step.
func (s *AskStep) Do(ctx context.Context, session *model.Session) error {
	if session.Question == "" {
		return fmt.Errorf("%w: question", ErrMissingInput)
	}
	answer, err := s.asker.Ask(ctx, session.Question)
	if err != nil {
		return err
	}
	session.Answer = answer
	return nil
}

// Components are the collaborators of a full run. Nil components are
// skipped when building the pipeline.
type Components struct {
	Crawler  Crawler
	Recorder Recorder
	Ingester Ingester
	Asker    Asker
}

// DefaultPipeline builds crawl → record → ingest → ask from the non-nil
// components, mirroring the `run` command.
func DefaultPipeline(c Components, logger *slog.Logger, opts ...Option) *Pipeline {
	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	if c.Crawler != nil {
		p.AddStep(NewCrawlStep(c.Crawler, logger))
	}
	if c.Recorder != nil {
		p.AddStep(NewRecordStep(c.Recorder, logger))
	}
	if c.Ingester != nil {
		p.AddStep(NewIngestStep(c.Ingester, logger))
	}
	if c.Asker != nil {
		p.AddStep(NewAskStep(c.Asker, logger))
	}
	return p
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
