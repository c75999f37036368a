package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ragcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragcrawl",
		Short: "Crawl documentation into a vector store and ask questions about it",
		Long: `ragcrawl crawls a site into plain text files, embeds the text into a
vector store and answers questions from the retrieved chunks.

HTML, PDF and DOCX documents are supported. Embeddings and answers use an
OpenAI compatible API; set OPENAI_API_KEY in the environment or in a .env
file in the current directory.`,
		Version:           getVersion(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadDotEnv,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .ragcrawl in current or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadDotEnv loads .env from the current directory. A missing file is fine.
// Variables already set in the environment win.
func loadDotEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
