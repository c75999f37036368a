package embed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Default batching values.
const (
	// DefaultBatchSize is the number of chunks per provider request.
	DefaultBatchSize = 64

	// DefaultConcurrency is the number of requests in flight at once.
	DefaultConcurrency = 4
)

// Client computes embedding vectors. langchaingo's embeddings.EmbedderImpl
// satisfies it, as do test fakes.
type Client interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Service splits text into chunks and embeds them.
//
// Design decision: batches are embedded concurrently through an errgroup
// with a fixed limit. The first failing batch cancels the rest and the
// whole call fails, so a file is never half embedded.
type Service struct {
	client      Client
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets the number of chunks per request.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency sets how many requests may run at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service backed by client.
func NewService(client Client, opts ...Option) *Service {
	s := &Service{
		client:      client,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed normalizes text, splits it with opts and returns a map from each
// distinct chunk to its vector. Text without any chunk yields an empty
// map and no provider call.
func (s *Service) Embed(ctx context.Context, text string, opts ChunkOptions) (map[string][]float32, error) {
	chunks, err := Split(Normalize(text), opts)
	if err != nil {
		return nil, err
	}
	chunks = unique(chunks)

	result := make(map[string][]float32, len(chunks))
	if len(chunks) == 0 {
		return result, nil
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		g.Go(func() error {
			batch, err := s.client.EmbedDocuments(gctx, chunks[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("%w: sent %d, got %d", ErrVectorCountMismatch, end-start, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("%w: chunk %d", ErrEmptyVector, i)
		}
		result[chunk] = vectors[i]
	}
	s.logger.Debug("embedded text", "chunks", len(result))
	return result, nil
}

// EmbedQuery embeds a single question or hypothetical answer.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.client.EmbedQuery(ctx, Normalize(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vec) == 0 {
		return nil, ErrEmptyVector
	}
	return vec, nil
}

func unique(chunks []string) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := chunks[:0]
	for _, c := range chunks {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
