package config

import "maps"

// SiteConfig holds crawl settings for one site, keyed by host in the
// config file. Pointer fields distinguish "unset" from a meaningful zero
// (depth 0 crawls the start page only).
type SiteConfig struct {
	// Depth overrides the crawl depth.
	Depth *int `yaml:"depth,omitempty"`

	// Workers overrides the number of page workers.
	Workers int `yaml:"workers,omitempty"`

	// AllowedPrefixes restricts followed links to these URL prefixes.
	AllowedPrefixes []string `yaml:"allowedPrefixes,omitempty"`

	// IgnorePatterns are URL path globs that are never followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// URLFilter limits text recording to matching URLs.
	URLFilter string `yaml:"urlFilter,omitempty"`

	// ContentFilter extracts the "content" group of each page's text.
	ContentFilter string `yaml:"contentFilter,omitempty"`

	// SkipNonMatching silences content filter misses.
	SkipNonMatching *bool `yaml:"skipNonMatching,omitempty"`

	// Cookie is sent with every request to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are sent with every request to this site.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// RAGConfig holds the ingest and ask settings of the config file.
type RAGConfig struct {
	Collection      string   `yaml:"collection,omitempty"`
	VectorStore     string   `yaml:"store,omitempty"`
	QdrantURL       string   `yaml:"qdrantURL,omitempty"`
	EmbeddingModel  string   `yaml:"embeddingModel,omitempty"`
	ChunkSize       int      `yaml:"chunkSize,omitempty"`
	ChunkOverlap    *int     `yaml:"chunkOverlap,omitempty"`
	ChunkSeparators []string `yaml:"chunkSeparators,omitempty"`
	ChatModel       string   `yaml:"chatModel,omitempty"`
	SystemMessage   string   `yaml:"systemMessage,omitempty"`
	MaxHits         int      `yaml:"maxHits,omitempty"`
	MinSimilarity   *float64 `yaml:"minSimilarity,omitempty"`
	UseHyDE         *bool    `yaml:"hyde,omitempty"`
	OpenAIBaseURL   string   `yaml:"openaiBaseURL,omitempty"`
}

// File represents the structure of the .ragcrawl configuration file.
type File struct {
	// Defaults apply to every site unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps hosts (e.g. "docs.example.com") to site settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// RAG holds ingest and ask settings.
	RAG RAGConfig `yaml:"rag,omitempty"`
}

// GetSiteConfig returns the settings for host, merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if site, ok := cf.Sites[host]; ok {
		result = mergeSiteConfig(result, site)
	}
	return result
}

// mergeSiteConfig returns base with every set field of override applied.
func mergeSiteConfig(base, override SiteConfig) SiteConfig {
	result := base
	if override.Depth != nil {
		result.Depth = override.Depth
	}
	if override.Workers > 0 {
		result.Workers = override.Workers
	}
	if len(override.AllowedPrefixes) > 0 {
		result.AllowedPrefixes = override.AllowedPrefixes
	}
	if len(override.IgnorePatterns) > 0 {
		result.IgnorePatterns = override.IgnorePatterns
	}
	if override.URLFilter != "" {
		result.URLFilter = override.URLFilter
	}
	if override.ContentFilter != "" {
		result.ContentFilter = override.ContentFilter
	}
	if override.SkipNonMatching != nil {
		result.SkipNonMatching = override.SkipNonMatching
	}
	if override.Cookie != "" {
		result.Cookie = override.Cookie
	}
	if len(override.Headers) > 0 {
		headers := make(map[string]string, len(base.Headers)+len(override.Headers))
		maps.Copy(headers, base.Headers)
		maps.Copy(headers, override.Headers)
		result.Headers = headers
	}
	return result
}

// RequestHeaders returns the headers to send, with the cookie folded in.
func (s SiteConfig) RequestHeaders() map[string]string {
	if s.Cookie == "" && len(s.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(s.Headers)+1)
	maps.Copy(headers, s.Headers)
	if s.Cookie != "" {
		headers["Cookie"] = s.Cookie
	}
	return headers
}
