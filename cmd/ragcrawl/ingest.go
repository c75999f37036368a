package main

import (
	"fmt"

	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed crawled text into the vector store",
		Long: `Ingest splits every text file below <output-dir>/text/ into chunks, embeds
the chunks and stores them in the collection. Consumed files are moved to
<output-dir>/processed/, so running ingest again only embeds new text.

The collection is created on first use with the dimension of the
embedding model. Use --recreate to start over, for example after
switching models.

Examples:
  # Embed into the local SQLite store
  ragcrawl ingest

  # Embed into Qdrant, replacing the collection
  ragcrawl ingest --store qdrant --collection docs --recreate`,
		Args: cobra.NoArgs,
		RunE: runIngestCmd,
	}

	addOutputDirFlag(cmd)
	addStoreFlags(cmd)
	addIngestFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runIngestCmd executes the ingest command.
func runIngestCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, err := buildConfig(cmd, readOutputDirFlag, readStoreFlags, readIngestFlags, readReportFlags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateIngest(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	db, err := openDB(cfg, false, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer closeQuietly(db, logger)
	}
	store, err := openStore(cfg, db, logger)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}

	p := pipeline.DefaultPipeline(pipeline.Components{
		Ingester: newIngester(cfg, embedder, store, logger),
	}, logger)

	session := model.NewSession("", "")
	runErr := p.Execute(ctx, session)

	if err := writeSessions(cmd, cfg, []*model.Session{session}); err != nil {
		return err
	}
	return runErr
}
