package rag

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/ragcrawl/internal/crawler"
	"github.com/nao1215/ragcrawl/internal/embed"
	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/vectorstore"
)

// Embedder turns text into chunk vectors. *embed.Service implements it.
type Embedder interface {
	Embed(ctx context.Context, text string, opts embed.ChunkOptions) (map[string][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Ingester moves crawled text into a vector store collection.
//
// Every .txt file under {outputDir}/text is embedded and upserted, then
// moved to the same relative path under {outputDir}/processed. A file is
// moved only after its vectors are stored, so a failed run can simply be
// repeated.
type Ingester struct {
	embedder   Embedder
	store      vectorstore.Store
	outputDir  string
	collection string
	chunk      embed.ChunkOptions
	recreate   bool
	logger     *slog.Logger
}

// IngestOption configures an Ingester.
type IngestOption func(*Ingester)

// WithChunkOptions sets how text is split before embedding.
func WithChunkOptions(opts embed.ChunkOptions) IngestOption {
	return func(i *Ingester) {
		i.chunk = opts
	}
}

// WithRecreate drops the collection before the first upsert.
func WithRecreate(recreate bool) IngestOption {
	return func(i *Ingester) {
		i.recreate = recreate
	}
}

// WithIngestLogger sets the logger.
func WithIngestLogger(logger *slog.Logger) IngestOption {
	return func(i *Ingester) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewIngester creates an Ingester for the text under outputDir.
func NewIngester(embedder Embedder, store vectorstore.Store, outputDir, collection string, opts ...IngestOption) *Ingester {
	i := &Ingester{
		embedder:   embedder,
		store:      store,
		outputDir:  outputDir,
		collection: collection,
		chunk:      embed.ChunkOptions{Size: 800, Overlap: 100, Separators: []string{"\n"}},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest processes every pending text file. Files that fail are logged,
// left in place and reported in the joined error; the others are still
// ingested. A store failure on collection setup aborts the run.
func (i *Ingester) Ingest(ctx context.Context) (*model.IngestStats, error) {
	stats := &model.IngestStats{Collection: i.collection}

	files, err := i.pendingFiles()
	if err != nil {
		return stats, err
	}
	i.logger.Info("ingesting text", "files", len(files), "collection", i.collection)

	if i.recreate {
		if err := i.store.DropCollection(ctx, i.collection); err != nil {
			return stats, fmt.Errorf("failed to drop collection %s: %w", i.collection, err)
		}
	}

	var (
		created bool
		errs    []error
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		vectors, err := i.embedFile(ctx, path)
		if err != nil {
			i.logger.Warn("failed to embed file", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}

		if len(vectors) > 0 {
			if !created {
				if err := i.store.CreateCollection(ctx, i.collection, dimensionOf(vectors)); err != nil {
					return stats, fmt.Errorf("failed to create collection %s: %w", i.collection, err)
				}
				created = true
			}
			if err := i.store.Upsert(ctx, i.collection, vectors); err != nil {
				i.logger.Warn("failed to store vectors", "path", path, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
		}

		if err := i.markProcessed(path); err != nil {
			errs = append(errs, err)
			continue
		}
		stats.Files++
		stats.Chunks += len(vectors)
		i.logger.Debug("ingested file", "path", path, "chunks", len(vectors))
	}

	return stats, errors.Join(errs...)
}

func (i *Ingester) pendingFiles() ([]string, error) {
	root := filepath.Join(i.outputDir, crawler.TextDirName)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	return files, nil
}

func (i *Ingester) embedFile(ctx context.Context, path string) (map[string][]float32, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from walking the output directory
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	vectors, err := i.embedder.Embed(ctx, string(data), i.chunk)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vectors, nil
}

// markProcessed moves path from text/ to the same relative path under processed/.
func (i *Ingester) markProcessed(path string) error {
	rel, err := filepath.Rel(filepath.Join(i.outputDir, crawler.TextDirName), path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dest := filepath.Join(i.outputDir, crawler.ProcessedDirName, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", path, err)
	}
	return nil
}

func dimensionOf(vectors map[string][]float32) int {
	for _, v := range vectors {
		return len(v)
	}
	return 0
}
