package main

import (
	"fmt"
	"strings"

	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the embedded text",
		Long: `Ask embeds the question, retrieves the most similar chunks from the vector
store and lets the chat model answer from them.

With --hyde (the default) the chat model first writes a hypothetical
answer; chunks similar to that answer are retrieved as well and a second
answer is generated from them. Both answers are printed.

Examples:
  ragcrawl ask "How do I configure the proxy?"

  # Search one collection, direct retrieval only
  ragcrawl ask --query-collection docs --hyde=false "What does --depth do?"

  # Show the retrieved chunks
  ragcrawl ask --show-context "Which file formats are supported?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAskCmd,
	}

	addStoreFlags(cmd)
	addAskFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runAskCmd executes the ask command. Arguments are joined into one
// question so it need not be quoted.
func runAskCmd(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(cmd, readStoreFlags, readAskFlags, readReportFlags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateAsk(); err != nil {
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
	asker, err := newAsker(cfg, embedder, store, logger)
	if err != nil {
		return err
	}

	p := pipeline.DefaultPipeline(pipeline.Components{Asker: asker}, logger)

	session := model.NewSession("", strings.Join(args, " "))
	runErr := p.Execute(ctx, session)

	if err := writeSessions(cmd, cfg, []*model.Session{session}); err != nil {
		return err
	}
	return runErr
}
