package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/ragcrawl/internal/config"
	"github.com/nao1215/ragcrawl/internal/crawler"
	"github.com/nao1215/ragcrawl/internal/fetch"
	"github.com/nao1215/ragcrawl/internal/model"
)

// siteCrawler builds a Spider per start URL with that site's settings
// from the configuration file, so several sites can be crawled in one
// batch with their own filters, cookies and depth.
//
// Design decision: a new Spider per crawl also means a new in-memory
// seen set per crawl. With Redis the seen set key includes the start URL
// for the same reason.
type siteCrawler struct {
	cfg    *config.Config
	file   *config.File
	skip   func(flag string) bool
	redis  redis.UniversalClient
	fresh  bool
	logger *slog.Logger
}

// Crawl implements pipeline.Crawler.
func (c *siteCrawler) Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	spider, err := c.spiderFor(ctx, startURL)
	if err != nil {
		return nil, err
	}
	return spider.Crawl(ctx, startURL)
}

// siteConfig returns the configuration for startURL: the global config
// with the site's config file settings applied.
func (c *siteCrawler) siteConfig(startURL string) *config.Config {
	cfg := *c.cfg
	cfg.StartURL = startURL
	if c.file == nil {
		return &cfg
	}
	if u, err := url.Parse(startURL); err == nil {
		cfg.ApplySite(c.file.GetSiteConfig(u.Hostname()), c.skip)
	}
	return &cfg
}

func (c *siteCrawler) spiderFor(ctx context.Context, startURL string) (*crawler.Spider, error) {
	cfg := c.siteConfig(startURL)
	if err := cfg.ValidateCrawl(); err != nil {
		return nil, fmt.Errorf("configuration error for %s: %w", startURL, err)
	}

	fetcher, err := fetch.NewClient(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithHeaders(cfg.Headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	opts := []crawler.Option{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithOutputDir(cfg.OutputDir),
		crawler.WithAllowedPrefixes(cfg.AllowedPrefixes),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithSkipNonMatching(cfg.SkipNonMatching),
		crawler.WithLogger(c.logger.With("start_url", startURL)),
	}
	if cfg.URLFilter != "" {
		re, err := regexp.Compile(cfg.URLFilter)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidURLFilter, err)
		}
		opts = append(opts, crawler.WithURLFilter(re))
	}
	if cfg.ContentFilter != "" {
		re, err := crawler.CompileContentFilter(cfg.ContentFilter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, crawler.WithContentFilter(re))
	}
	if c.redis != nil {
		seen := crawler.NewRedisSeenSet(c.redis, cfg.RedisKey+":"+crawler.NormalizeURL(startURL))
		if c.fresh {
			if err := seen.Reset(ctx); err != nil {
				return nil, err
			}
		}
		opts = append(opts, crawler.WithSeenSet(seen))
	}

	return crawler.NewSpider(fetcher, opts...), nil
}

// newRedisClient connects to the Redis server at rawURL and checks it
// answers.
func newRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
