package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/ragcrawl/internal/config"
	"github.com/nao1215/ragcrawl/internal/crawler"
	"github.com/nao1215/ragcrawl/internal/database"
	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/spf13/cobra"
)

// ErrCrawlNotFound is returned when the requested crawl is not in the history.
var ErrCrawlNotFound = errors.New("crawl not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List or show recorded crawls",
		Long: `History lists the crawls recorded in the database, newest first.
Give a start URL to list only its crawls.

Use --id to print the report of one crawl, or --latest with a start URL
to print the report of its most recent crawl. --written-within checks
whether a page's text was written recently.

Examples:
  ragcrawl history
  ragcrawl history https://docs.example.com/
  ragcrawl history --id 42 --markdown
  ragcrawl history --latest https://docs.example.com/

  # Was this page's text written during the last day?
  ragcrawl history --written-within 24h https://docs.example.com/guide`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("id", 0, "Print the report of the crawl with this id")
	cmd.Flags().Bool("latest", false, "Print the report of the latest crawl of the given URL")
	cmd.Flags().Duration("written-within", 0, "Report whether the given page URL had its text written within this duration")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the SQLite database")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(cmd, readDBDirFlag, readReportFlags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	var startURL string
	if len(args) == 1 {
		startURL = args[0]
	}
	within, err := cmd.Flags().GetDuration("written-within")
	if err != nil {
		return err
	}
	if (latest || within > 0) && startURL == "" {
		return errors.New("--latest and --written-within require a URL")
	}

	logger := setupLogger(cfg)
	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return err
	}
	defer closeQuietly(db, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if within > 0 {
		pageURL := crawler.NormalizeURL(startURL)
		written, err := db.HasRecentWrite(ctx, pageURL, within)
		if err != nil {
			return err
		}
		if !written {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not written within %s\n", pageURL, within)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: written within %s\n", pageURL, within)
		return nil
	}

	var result *model.CrawlResult
	switch {
	case id > 0:
		result, err = db.GetCrawl(ctx, id)
	case latest:
		result, err = db.GetLatestCrawl(ctx, startURL)
	default:
		runs, err := db.ListCrawls(ctx, startURL)
		if err != nil {
			return err
		}
		writeRunList(cmd.OutOrStdout(), runs)
		return nil
	}
	if err != nil {
		return err
	}
	if result == nil {
		return ErrCrawlNotFound
	}

	session := model.NewSession(result.StartURL, "")
	session.Crawl = result
	session.CrawlID = id
	return writeSessions(cmd, cfg, []*model.Session{session})
}

// writeRunList prints one line per recorded crawl.
func writeRunList(w io.Writer, runs []database.CrawlRunMetadata) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No crawls recorded.")
		return
	}

	fmt.Fprintf(w, "%-6s %-20s %-10s %-10s %s\n", "ID", "STARTED", "DURATION", "DISCOVERED", "START URL")
	for _, run := range runs {
		fmt.Fprintf(w, "%-6d %-20s %-10s %-10d %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration.Round(time.Second),
			run.Discovered,
			run.StartURL,
		)
		if len(run.StatusSummary) > 0 {
			fmt.Fprintf(w, "       %s\n", formatSummary(run.StatusSummary))
		}
	}
}

// formatSummary renders status counts as "failed=1 written=12", sorted by name.
func formatSummary(summary map[string]int) string {
	parts := make([]string, 0, len(summary))
	for _, name := range slices.Sorted(maps.Keys(summary)) {
		parts = append(parts, fmt.Sprintf("%s=%d", name, summary[name]))
	}
	return strings.Join(parts, " ")
}
