package main

import (
	"github.com/nao1215/ragcrawl/internal/config"
	"github.com/spf13/cobra"
)

// Flag groups. Each command registers the groups it needs and buildConfig
// reads the same groups back into a config.Config. Flag names double as
// the keys config.ApplySite and config.ApplyRAG use to decide whether the
// user overrode a config file value.

func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth below the start page (0 crawls the start page only)")
	f.IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent page workers")
	f.StringSliceP("allow", "a", nil,
		"Only follow links starting with these prefixes (default: any http(s) URL)")
	f.StringSlice("ignore", nil,
		"URL path globs that are never followed (e.g. /blog/*)")
	f.String("url-filter", "",
		"Only record text of pages whose URL matches this regular expression")
	f.String("content-filter", "",
		`Keep only the named group "content" of each page's text, e.g. '(?s)<main>(?P<content>.*)</main>'`)
	f.Bool("skip-non-matching", false,
		"Silently skip pages the content filter does not match")
	f.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	f.String("user-agent", "",
		"User-Agent header (default: a desktop browser)")
	f.Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size of a fetched document in bytes")
	f.String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	f.String("redis-url", "",
		"Keep the seen set in Redis (e.g. redis://localhost:6379/0); a start URL already in the set is refused until --fresh is given")
	f.String("redis-key", config.AppName+":seen",
		"Redis key prefix of the seen set")
	f.Bool("fresh", false,
		"Clear the Redis seen set of each start URL before crawling it again")
	f.Bool("no-db", false,
		"Do not record the crawl in the history database")
}

func addOutputDirFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output-dir", "O", config.DefaultOutputDir,
		"Directory holding crawled text (text/) and ingested text (processed/)")
}

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("store", config.DefaultVectorStore,
		"Vector store: sqlite, qdrant or memory")
	f.String("qdrant-url", config.DefaultQdrantURL,
		"Qdrant REST endpoint")
	f.String("collection", config.DefaultCollection,
		"Collection crawled text is embedded into")
	f.String("embedding-model", config.DefaultEmbeddingModel,
		"Embedding model")
	f.String("db-dir", config.XDGDataDir(),
		"Directory of the SQLite database")
}

func addIngestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("chunk-size", config.DefaultChunkSize,
		"Chunk size in characters")
	f.Int("chunk-overlap", config.DefaultChunkOverlap,
		"Overlap between neighbouring chunks in characters")
	f.StringSlice("separator", config.DefaultChunkSeparators,
		"Separators tried in order when splitting text")
	f.Int("embedding-batch-size", config.DefaultEmbeddingBatchSize,
		"Chunks per embedding request")
	f.Bool("recreate", false,
		"Drop the collection before ingesting")
}

func addAskFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("chat-model", config.DefaultChatModel,
		"Chat model that answers the question")
	f.String("system", config.DefaultSystemMessage,
		"System message of the chat model")
	f.Int("max-hits", config.DefaultMaxHits,
		"Number of chunks retrieved per question")
	f.Float64("min-similarity", 0,
		"Drop retrieved chunks with a lower cosine similarity")
	f.Bool("hyde", true,
		"Also answer from chunks retrieved with a hypothetical answer")
	f.StringSlice("query-collection", nil,
		"Collections to search (default: all)")
	f.Bool("show-context", false,
		"Print the chunks each answer was generated from")
}

func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// flagGroup reads one group of flags into cfg.
type flagGroup func(cmd *cobra.Command, cfg *config.Config) error

func readCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if cfg.MaxDepth, err = f.GetInt("depth"); err != nil {
		return err
	}
	if cfg.Workers, err = f.GetInt("workers"); err != nil {
		return err
	}
	if cfg.AllowedPrefixes, err = f.GetStringSlice("allow"); err != nil {
		return err
	}
	if cfg.IgnorePatterns, err = f.GetStringSlice("ignore"); err != nil {
		return err
	}
	if cfg.URLFilter, err = f.GetString("url-filter"); err != nil {
		return err
	}
	if cfg.ContentFilter, err = f.GetString("content-filter"); err != nil {
		return err
	}
	if cfg.SkipNonMatching, err = f.GetBool("skip-non-matching"); err != nil {
		return err
	}
	if cfg.Timeout, err = f.GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.UserAgent, err = f.GetString("user-agent"); err != nil {
		return err
	}
	if cfg.MaxBodySize, err = f.GetInt64("max-body-size"); err != nil {
		return err
	}
	if cfg.ProxyAddress, err = f.GetString("proxy"); err != nil {
		return err
	}
	if cfg.RedisURL, err = f.GetString("redis-url"); err != nil {
		return err
	}
	if cfg.RedisKey, err = f.GetString("redis-key"); err != nil {
		return err
	}
	noDB, err := f.GetBool("no-db")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noDB
	return nil
}

func readOutputDirFlag(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	return err
}

func readStoreFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if cfg.VectorStore, err = f.GetString("store"); err != nil {
		return err
	}
	if cfg.QdrantURL, err = f.GetString("qdrant-url"); err != nil {
		return err
	}
	if cfg.Collection, err = f.GetString("collection"); err != nil {
		return err
	}
	if cfg.EmbeddingModel, err = f.GetString("embedding-model"); err != nil {
		return err
	}
	cfg.DBDir, err = f.GetString("db-dir")
	return err
}

func readIngestFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if cfg.ChunkSize, err = f.GetInt("chunk-size"); err != nil {
		return err
	}
	if cfg.ChunkOverlap, err = f.GetInt("chunk-overlap"); err != nil {
		return err
	}
	if cfg.ChunkSeparators, err = f.GetStringSlice("separator"); err != nil {
		return err
	}
	if cfg.EmbeddingBatchSize, err = f.GetInt("embedding-batch-size"); err != nil {
		return err
	}
	cfg.RecreateCollection, err = f.GetBool("recreate")
	return err
}

func readAskFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if cfg.ChatModel, err = f.GetString("chat-model"); err != nil {
		return err
	}
	if cfg.SystemMessage, err = f.GetString("system"); err != nil {
		return err
	}
	if cfg.MaxHits, err = f.GetInt("max-hits"); err != nil {
		return err
	}
	if cfg.MinSimilarity, err = f.GetFloat64("min-similarity"); err != nil {
		return err
	}
	if cfg.UseHyDE, err = f.GetBool("hyde"); err != nil {
		return err
	}
	cfg.QueryCollections, err = f.GetStringSlice("query-collection")
	return err
}

func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if cfg.JSONReport, err = f.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
		return err
	}
	cfg.ReportFile, err = f.GetString("output")
	return err
}
