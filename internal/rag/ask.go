package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ragcrawl/internal/llm"
	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/vectorstore"
)

// ErrEmptyQuestion is returned when Ask receives a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Asker answers questions from the vector store.
type Asker struct {
	embedder      Embedder
	store         vectorstore.Store
	model         llm.Model
	collections   []string
	maxHits       int
	minSimilarity float64
	hyde          bool
	logger        *slog.Logger
}

// AskOption configures an Asker.
type AskOption func(*Asker)

// WithCollections limits retrieval to the named collections.
// None searches all of them.
func WithCollections(names ...string) AskOption {
	return func(a *Asker) {
		a.collections = names
	}
}

// WithMaxHits sets the number of chunks retrieved per query.
func WithMaxHits(n int) AskOption {
	return func(a *Asker) {
		if n > 0 {
			a.maxHits = n
		}
	}
}

// WithMinSimilarity drops chunks scoring below s.
func WithMinSimilarity(s float64) AskOption {
	return func(a *Asker) {
		a.minSimilarity = s
	}
}

// WithHyDE enables the second, hypothetical-answer retrieval.
func WithHyDE(enabled bool) AskOption {
	return func(a *Asker) {
		a.hyde = enabled
	}
}

// WithAskLogger sets the logger.
func WithAskLogger(logger *slog.Logger) AskOption {
	return func(a *Asker) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAsker creates an Asker. HyDE is off unless WithHyDE enables it.
func NewAsker(embedder Embedder, store vectorstore.Store, m llm.Model, opts ...AskOption) *Asker {
	a := &Asker{
		embedder: embedder,
		store:    store,
		model:    m,
		maxHits:  50,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers question from the chunks nearest to its embedding. With
// HyDE, it also answers from the chunks nearest to a hypothetical answer;
// the question embedding and the hypothetical answer are produced
// concurrently.
func (a *Asker) Ask(ctx context.Context, question string) (*model.Answer, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	answer := &model.Answer{Question: question}

	var questionVec []float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questionVec, err = a.embedder.EmbedQuery(gctx, question)
		return err
	})
	if a.hyde {
		g.Go(func() error {
			var err error
			answer.Hypothetical, err = a.model.HypotheticalAnswer(gctx, question)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var err error
	answer.DirectContext, answer.Direct, err = a.respond(ctx, questionVec, question)
	if err != nil {
		return nil, fmt.Errorf("direct answer: %w", err)
	}
	if !a.hyde {
		return answer, nil
	}

	hydeVec, err := a.embedder.EmbedQuery(ctx, answer.Hypothetical)
	if err != nil {
		return nil, fmt.Errorf("failed to embed hypothetical answer: %w", err)
	}
	answer.HyDEContext, answer.HyDE, err = a.respond(ctx, hydeVec, question)
	if err != nil {
		return nil, fmt.Errorf("hyde answer: %w", err)
	}
	return answer, nil
}

func (a *Asker) respond(ctx context.Context, vec []float32, question string) ([]model.ScoredText, string, error) {
	hits, err := a.store.Query(ctx, vec, a.collections, a.maxHits, a.minSimilarity)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query store: %w", err)
	}
	a.logger.Debug("retrieved context", "hits", len(hits))

	reply, err := a.model.Respond(ctx, llm.FormatContext(hits), question)
	if err != nil {
		return nil, "", err
	}
	return hits, reply, nil
}
