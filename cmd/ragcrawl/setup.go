package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/ragcrawl/internal/config"
	"github.com/nao1215/ragcrawl/internal/database"
	"github.com/nao1215/ragcrawl/internal/embed"
	"github.com/nao1215/ragcrawl/internal/llm"
	"github.com/nao1215/ragcrawl/internal/log"
	"github.com/nao1215/ragcrawl/internal/rag"
	"github.com/nao1215/ragcrawl/internal/report"
	"github.com/nao1215/ragcrawl/internal/vectorstore"
	"github.com/spf13/cobra"
)

// buildConfig creates a Config from defaults, the configuration file and
// the given flag groups. It returns the loaded file too, because crawl
// settings are resolved per site later on.
func buildConfig(cmd *cobra.Command, groups ...flagGroup) (*config.Config, *config.File, error) {
	cfg := config.NewConfig()
	for _, read := range groups {
		if err := read(cmd, cfg); err != nil {
			return nil, nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON = getBoolFlag(cmd, "log-json")
	cfg.QdrantAPIKey = os.Getenv("QDRANT_API_KEY")

	cfg.ConfigFilePath = getConfigFlag(cmd)

	var err error

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise silently use an empty config when no file is found.
	file := &config.File{Sites: make(map[string]config.SiteConfig)}
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		if file, err = config.LoadConfigFile(configPath); err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.ApplyRAG(file.RAG, flagChanged(cmd))
	return cfg, file, nil
}

// flagChanged reports whether the user set a flag explicitly. Flags the
// command does not define count as unset.
func flagChanged(cmd *cobra.Command) func(string) bool {
	return func(name string) bool {
		return cmd.Flags().Changed(name)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getBoolFlag(cmd, "verbose")
}

func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// setupLogger creates the credential-masking logger on stderr.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	if cfg.LogJSON {
		logger = log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
// Cancellation lets running crawls return their partial results.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openDB opens the crawl history database when the configuration needs it:
// for recording crawls or as the sqlite vector store. It returns nil otherwise.
func openDB(cfg *config.Config, needHistory bool, logger *slog.Logger) (*database.CrawlDB, error) {
	if !needHistory && cfg.VectorStore != config.VectorStoreSQLite {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// openStore returns the configured vector store. db must be non-nil for
// the sqlite store.
func openStore(cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStore {
	case config.VectorStoreSQLite:
		if db == nil {
			return nil, errors.New("sqlite vector store requires the database")
		}
		return db.VectorStore(), nil
	case config.VectorStoreQdrant:
		opts := []vectorstore.QdrantOption{}
		if cfg.QdrantAPIKey != "" {
			opts = append(opts, vectorstore.WithAPIKey(cfg.QdrantAPIKey))
		}
		logger.Debug("using qdrant", "url", cfg.QdrantURL)
		return vectorstore.NewQdrantStore(cfg.QdrantURL, opts...), nil
	case config.VectorStoreMemory:
		logger.Warn("memory vector store does not outlive this process")
		return vectorstore.NewMemoryStore(), nil
	default:
		return nil, config.ErrInvalidVectorStore
	}
}

// newEmbedder creates the embedding service over the OpenAI API.
func newEmbedder(cfg *config.Config, logger *slog.Logger) (*embed.Service, error) {
	client, err := embed.NewOpenAIClient(cfg.EmbeddingModel, cfg.OpenAIBaseURL, cfg.EmbeddingBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return embed.NewService(client,
		embed.WithBatchSize(cfg.EmbeddingBatchSize),
		embed.WithLogger(logger),
	), nil
}

func newIngester(cfg *config.Config, embedder rag.Embedder, store vectorstore.Store, logger *slog.Logger) *rag.Ingester {
	return rag.NewIngester(embedder, store, cfg.OutputDir, cfg.Collection,
		rag.WithChunkOptions(embed.ChunkOptions{
			Size:       cfg.ChunkSize,
			Overlap:    cfg.ChunkOverlap,
			Separators: cfg.ChunkSeparators,
		}),
		rag.WithRecreate(cfg.RecreateCollection),
		rag.WithIngestLogger(logger),
	)
}

func newAsker(cfg *config.Config, embedder rag.Embedder, store vectorstore.Store, logger *slog.Logger) (*rag.Asker, error) {
	generator, err := llm.NewOpenAIGenerator(cfg.ChatModel, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	chat := llm.NewChat(generator, cfg.SystemMessage,
		llm.WithModel(cfg.ChatModel),
		llm.WithLogger(logger),
	)
	return rag.NewAsker(embedder, store, chat,
		rag.WithCollections(cfg.QueryCollections...),
		rag.WithMaxHits(cfg.MaxHits),
		rag.WithMinSimilarity(cfg.MinSimilarity),
		rag.WithHyDE(cfg.UseHyDE),
		rag.WithAskLogger(logger),
	), nil
}

// newReportWriter returns the writer for the selected report format and a
// function closing the report file, if any. When a JSON or Markdown report
// goes to a file, a plain text summary is also printed to stdout.
func newReportWriter(cmd *cobra.Command, cfg *config.Config) (report.Writer, func() error, error) {
	stdout := cmd.OutOrStdout()
	var textOpts []report.SimpleWriterOption
	if cmd.Flags().Lookup("show-context") != nil {
		show, err := cmd.Flags().GetBool("show-context")
		if err != nil {
			return nil, nil, err
		}
		textOpts = append(textOpts, report.WithShowContext(show))
	}
	textOpts = append(textOpts, report.WithVerbose(cfg.Verbose))

	output := stdout
	closeFn := func() error { return nil }
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports may quote pages behind a login; keep them owner-readable.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		output = f
		closeFn = f.Close
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, textOpts...), closeFn, nil
	}

	if output != stdout {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, textOpts...))
	}
	return w, closeFn, nil
}

// closeQuietly closes c and logs a failure.
func closeQuietly(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close", "error", err)
	}
}
