package main

import (
	"fmt"
	"strings"

	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <url> <question>",
		Short: "Crawl, ingest and ask in one go",
		Long: `Run crawls the site, records the crawl, embeds the crawled text into the
collection and answers the question from that collection.

Unless --query-collection is given, only the ingested collection is
searched. With --store memory nothing is kept after the command exits.

Examples:
  ragcrawl run https://docs.example.com/ "How do I install it?"

  # Throwaway run without Qdrant or the local store
  ragcrawl run --store memory -d 1 https://docs.example.com/ "What is it?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runRunCmd,
	}

	addCrawlFlags(cmd)
	addOutputDirFlag(cmd)
	addStoreFlags(cmd)
	addIngestFlags(cmd)
	addAskFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := buildConfig(cmd,
		readCrawlFlags, readOutputDirFlag, readStoreFlags,
		readIngestFlags, readAskFlags, readReportFlags,
	)
	if err != nil {
		return err
	}
	if len(cfg.QueryCollections) == 0 {
		cfg.QueryCollections = []string{cfg.Collection}
	}
	startURL := args[0]
	question := strings.Join(args[1:], " ")

	fresh, err := cmd.Flags().GetBool("fresh")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	sc := &siteCrawler{cfg: cfg, file: file, skip: flagChanged(cmd), fresh: fresh, logger: logger}

	for _, validate := range []func() error{
		sc.siteConfig(startURL).ValidateCrawl,
		cfg.ValidateIngest,
		cfg.ValidateAsk,
	} {
		if err := validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	if cfg.RedisURL != "" {
		client, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer closeQuietly(client, logger)
		sc.redis = client
	}

	db, err := openDB(cfg, cfg.SaveToDB, logger)
	if err != nil {
		return err
	}
	var recorder pipeline.Recorder
	if db != nil {
		defer closeQuietly(db, logger)
		if cfg.SaveToDB {
			recorder = db
		}
	}
	store, err := openStore(cfg, db, logger)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}
	asker, err := newAsker(cfg, embedder, store, logger)
	if err != nil {
		return err
	}

	// A failed record step must not keep the crawled text from being
	// ingested and asked about.
	p := pipeline.DefaultPipeline(pipeline.Components{
		Crawler:  sc,
		Recorder: recorder,
		Ingester: newIngester(cfg, embedder, store, logger),
		Asker:    asker,
	}, logger, pipeline.WithContinueOnError(true))

	session := model.NewSession(startURL, question)
	runErr := p.Execute(ctx, session)

	if err := writeSessions(cmd, cfg, []*model.Session{session}); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	return sessionsError([]*model.Session{session})
}
