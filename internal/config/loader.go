package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".ragcrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// A missing file yields ErrConfigNotFound; callers decide whether that
// matters based on whether the path was given explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	return &cf, nil
}

// FindConfigFile returns the configuration file to use, or "" if none exists.
// Search order:
//  1. configPath, when given
//  2. .ragcrawl in the current directory
//  3. .ragcrawl in the home directory
//  4. config.yaml in the XDG config directory
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ApplySite copies the set fields of a site configuration into c.
// Fields named in skip (CLI flag names the user set explicitly) keep
// their current value.
func (c *Config) ApplySite(site SiteConfig, skip func(flag string) bool) {
	if site.Depth != nil && !skip("depth") {
		c.MaxDepth = *site.Depth
	}
	if site.Workers > 0 && !skip("workers") {
		c.Workers = site.Workers
	}
	if len(site.AllowedPrefixes) > 0 && !skip("allow") {
		c.AllowedPrefixes = site.AllowedPrefixes
	}
	if len(site.IgnorePatterns) > 0 && !skip("ignore") {
		c.IgnorePatterns = site.IgnorePatterns
	}
	if site.URLFilter != "" && !skip("url-filter") {
		c.URLFilter = site.URLFilter
	}
	if site.ContentFilter != "" && !skip("content-filter") {
		c.ContentFilter = site.ContentFilter
	}
	if site.SkipNonMatching != nil && !skip("skip-non-matching") {
		c.SkipNonMatching = *site.SkipNonMatching
	}
	if headers := site.RequestHeaders(); len(headers) > 0 {
		c.Headers = headers
	}
}

// ApplyRAG copies the set fields of the rag section into c, honouring skip
// like ApplySite.
func (c *Config) ApplyRAG(rag RAGConfig, skip func(flag string) bool) {
	if rag.Collection != "" && !skip("collection") {
		c.Collection = rag.Collection
	}
	if rag.VectorStore != "" && !skip("store") {
		c.VectorStore = rag.VectorStore
	}
	if rag.QdrantURL != "" && !skip("qdrant-url") {
		c.QdrantURL = rag.QdrantURL
	}
	if rag.EmbeddingModel != "" && !skip("embedding-model") {
		c.EmbeddingModel = rag.EmbeddingModel
	}
	if rag.ChunkSize > 0 && !skip("chunk-size") {
		c.ChunkSize = rag.ChunkSize
	}
	if rag.ChunkOverlap != nil && !skip("chunk-overlap") {
		c.ChunkOverlap = *rag.ChunkOverlap
	}
	if len(rag.ChunkSeparators) > 0 && !skip("separator") {
		c.ChunkSeparators = rag.ChunkSeparators
	}
	if rag.ChatModel != "" && !skip("chat-model") {
		c.ChatModel = rag.ChatModel
	}
	if rag.SystemMessage != "" && !skip("system") {
		c.SystemMessage = rag.SystemMessage
	}
	if rag.MaxHits > 0 && !skip("max-hits") {
		c.MaxHits = rag.MaxHits
	}
	if rag.MinSimilarity != nil && !skip("min-similarity") {
		c.MinSimilarity = *rag.MinSimilarity
	}
	if rag.UseHyDE != nil && !skip("hyde") {
		c.UseHyDE = *rag.UseHyDE
	}
	if rag.OpenAIBaseURL != "" {
		c.OpenAIBaseURL = rag.OpenAIBaseURL
	}
}
