package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/ragcrawl/internal/config"
	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>...",
		Short: "Crawl sites and write their text to the output directory",
		Long: `Crawl fetches pages starting at each URL, follows links up to the given
depth and writes the plain text of every HTML, PDF and DOCX document to
<output-dir>/text/<domain>/. Run "ragcrawl ingest" afterwards to embed it.

Every crawl is recorded in the history database unless --no-db is given.

Examples:
  # Crawl a documentation site two levels deep
  ragcrawl crawl https://docs.example.com/

  # Stay below the guide and keep only the main content
  ragcrawl crawl --allow https://docs.example.com/guide/ \
    --content-filter '(?s)<main>(?P<content>.*)</main>' https://docs.example.com/guide/

  # Crawl several sites, two at a time
  ragcrawl crawl -b 2 https://a.example.com/ https://b.example.com/

  # Keep the seen set in Redis; crawl the same site again with --fresh
  ragcrawl crawl --redis-url redis://localhost:6379/0 https://docs.example.com/
  ragcrawl crawl --redis-url redis://localhost:6379/0 --fresh https://docs.example.com/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)
	addOutputDirFlag(cmd)
	addReportFlags(cmd)
	cmd.Flags().IntP("batch", "b", 1, "Number of start URLs crawled concurrently")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the SQLite database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := buildConfig(cmd, readCrawlFlags, readOutputDirFlag, readReportFlags, readDBDirFlag)
	if err != nil {
		return err
	}
	// Crawling never touches the vector store.
	cfg.VectorStore = ""
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	fresh, err := cmd.Flags().GetBool("fresh")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	sc := &siteCrawler{cfg: cfg, file: file, skip: flagChanged(cmd), fresh: fresh, logger: logger}

	// Fail fast on bad settings before anything is fetched.
	for _, startURL := range args {
		if err := sc.siteConfig(startURL).ValidateCrawl(); err != nil {
			return fmt.Errorf("configuration error for %s: %w", startURL, err)
		}
	}

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
		recorder = db
	}

	components := pipeline.Components{Crawler: sc, Recorder: recorder}
	sessions, err := runCrawlBatch(ctx, components, args, batch, logger)

	if writeErr := writeSessions(cmd, cfg, sessions); writeErr != nil {
		return writeErr
	}
	if err != nil {
		return err
	}
	return sessionsError(sessions)
}

// ErrStepsFailed is returned when a pipeline kept going past failed steps.
var ErrStepsFailed = errors.New("some steps failed")

// sessionsError reports step failures recorded in the sessions, which
// pipelines configured to continue on error do not return.
func sessionsError(sessions []*model.Session) error {
	failed := 0
	for _, s := range sessions {
		if s != nil {
			failed += len(s.StepErrors)
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d step error(s), see the report", ErrStepsFailed, failed)
}

// runCrawlBatch crawls every start URL through the crawl and record steps.
func runCrawlBatch(ctx context.Context, c pipeline.Components, startURLs []string, concurrency int, logger *slog.Logger) ([]*model.Session, error) {
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(c, logger, pipeline.WithContinueOnError(true))
		},
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	sessions, err := bp.ProcessBatch(ctx, startURLs)
	logger.Info("crawl batch finished", "urls", len(startURLs), "elapsed", time.Since(startTime).Round(time.Millisecond))
	if errors.Is(err, context.Canceled) {
		logger.Warn("crawl cancelled, reporting partial results")
	}
	return sessions, err
}

// writeSessions writes a report for every session that ran.
func writeSessions(cmd *cobra.Command, cfg *config.Config, sessions []*model.Session) error {
	w, closeFn, err := newReportWriter(cmd, cfg)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session == nil {
			continue
		}
		if _, err := w.WriteSession(session); err != nil {
			_ = closeFn() //nolint:errcheck // The write error is more useful
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return closeFn()
}

func readDBDirFlag(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	return err
}
