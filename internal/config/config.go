package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ragcrawl"

	// DefaultMaxDepth follows links two levels below the start page,
	// which covers the navigation of most documentation sites.
	DefaultMaxDepth = 2

	// DefaultWorkers is the number of concurrent page workers.
	DefaultWorkers = 2

	// DefaultOutputDir holds crawled text (text/) and ingested text (processed/).
	DefaultOutputDir = "out"

	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps a fetched document. PDFs are the largest inputs.
	DefaultMaxBodySize = 32 * 1024 * 1024 // 32MB

	// DefaultCollection is the vector store collection crawled text is stored in.
	DefaultCollection = "ragcrawl"

	// DefaultEmbeddingModel is the OpenAI embedding model.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultEmbeddingBatchSize is how many chunks go into one embedding request.
	DefaultEmbeddingBatchSize = 64

	// DefaultChunkSize and DefaultChunkOverlap are measured in characters.
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100

	// DefaultChatModel answers questions.
	DefaultChatModel = "gpt-4o-mini"

	// DefaultMaxHits is the number of chunks retrieved per question.
	DefaultMaxHits = 50

	// DefaultVectorStore keeps vectors in the local SQLite database.
	DefaultVectorStore = VectorStoreSQLite

	// DefaultQdrantURL is Qdrant's default REST endpoint.
	DefaultQdrantURL = "http://localhost:6333"

	// DefaultSystemMessage frames the assistant for question answering.
	DefaultSystemMessage = "You are a helpful assistant that answers questions about the crawled documentation."
)

// Vector store backends.
const (
	VectorStoreSQLite = "sqlite"
	VectorStoreQdrant = "qdrant"
	VectorStoreMemory = "memory"
)

// DefaultChunkSeparators splits text on line boundaries first.
var DefaultChunkSeparators = []string{"\n"}

// Config holds every option of ragcrawl. It is filled from defaults, the
// optional config file and CLI flags, in that order, and then passed
// down explicitly; nothing reads global state.
//
// Design decision: a single flat struct. The crawl, ingest and ask
// commands share most settings (output directory, collection, store), and
// nesting would only add indirection at every call site.
type Config struct {
	// StartURL is where the crawl begins.
	StartURL string

	// MaxDepth is the link depth bound. 0 crawls the start URL only.
	MaxDepth int

	// AllowedPrefixes restricts which links are followed.
	// Empty means any http(s) URL.
	AllowedPrefixes []string

	// IgnorePatterns are URL path globs that are never followed.
	IgnorePatterns []string

	// Workers is the number of concurrent page workers.
	Workers int

	// OutputDir is the root of text/ and processed/.
	OutputDir string

	// URLFilter, when set, limits text recording to URLs it matches at
	// the start. Links of other pages are still followed.
	URLFilter string

	// ContentFilter, when set, must define a named group "content";
	// only that group of the first match is written.
	ContentFilter string

	// SkipNonMatching turns a content filter miss into a silent skip.
	SkipNonMatching bool

	// Timeout bounds each fetch.
	Timeout time.Duration

	// UserAgent overrides the browser User-Agent sent with requests.
	UserAgent string

	// MaxBodySize caps each fetched document in bytes.
	MaxBodySize int64

	// ProxyAddress routes fetches through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Headers are sent with every fetch. Populated from the config file.
	Headers map[string]string

	// RedisURL, when set, keeps the seen set in Redis under RedisKey so
	// several crawler processes can share one crawl.
	RedisURL string

	// RedisKey is the Redis set used for the seen set.
	RedisKey string

	// Collection is the vector store collection to ingest into and query.
	Collection string

	// QueryCollections are the collections searched when asking.
	// Empty means all collections.
	QueryCollections []string

	// VectorStore selects the backend: sqlite, qdrant or memory.
	VectorStore string

	// QdrantURL is the Qdrant REST endpoint.
	QdrantURL string

	// QdrantAPIKey authenticates against Qdrant Cloud. Read from the
	// QDRANT_API_KEY environment variable.
	QdrantAPIKey string

	// RecreateCollection drops the collection before ingesting.
	RecreateCollection bool

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string

	// EmbeddingBatchSize is the number of chunks per embedding request.
	EmbeddingBatchSize int

	// ChunkSize and ChunkOverlap control text splitting, in characters.
	ChunkSize    int
	ChunkOverlap int

	// ChunkSeparators are tried in order when splitting.
	ChunkSeparators []string

	// ChatModel is the model that answers questions.
	ChatModel string

	// SystemMessage is the chat system prompt.
	SystemMessage string

	// MaxHits is the number of chunks retrieved per question.
	MaxHits int

	// MinSimilarity drops retrieved chunks scoring below it.
	MinSimilarity float64

	// UseHyDE additionally answers from chunks retrieved with a
	// hypothetical answer's embedding.
	UseHyDE bool

	// OpenAIBaseURL points the OpenAI client at a compatible server.
	OpenAIBaseURL string

	// DBDir is the directory of the SQLite database holding crawl history
	// and, for the sqlite store, vectors.
	DBDir string

	// SaveToDB records crawl results in the database.
	SaveToDB bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON writes logs as JSON lines instead of text.
	LogJSON bool

	// JSONReport and MarkdownReport select the crawl report format.
	// They are mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit config file path.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:           DefaultMaxDepth,
		Workers:            DefaultWorkers,
		OutputDir:          DefaultOutputDir,
		Timeout:            DefaultTimeout,
		MaxBodySize:        DefaultMaxBodySize,
		RedisKey:           AppName + ":seen",
		Collection:         DefaultCollection,
		VectorStore:        DefaultVectorStore,
		QdrantURL:          DefaultQdrantURL,
		EmbeddingModel:     DefaultEmbeddingModel,
		EmbeddingBatchSize: DefaultEmbeddingBatchSize,
		ChunkSize:          DefaultChunkSize,
		ChunkOverlap:       DefaultChunkOverlap,
		ChunkSeparators:    append([]string(nil), DefaultChunkSeparators...),
		ChatModel:          DefaultChatModel,
		SystemMessage:      DefaultSystemMessage,
		MaxHits:            DefaultMaxHits,
		UseHyDE:            true,
		DBDir:              XDGDataDir(),
		SaveToDB:           true,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/ragcrawl on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/ragcrawl on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks settings shared by all commands.
func (c *Config) Validate() error {
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// ValidateCrawl checks the settings the crawl command needs.
// It returns the first problem found.
func (c *Config) ValidateCrawl() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	u, err := url.Parse(c.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidStartURL
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.URLFilter != "" {
		if _, err := regexp.Compile(c.URLFilter); err != nil {
			return ErrInvalidURLFilter
		}
	}
	if c.ContentFilter != "" {
		re, err := regexp.Compile(c.ContentFilter)
		if err != nil {
			return ErrInvalidContentFilter
		}
		if re.SubexpIndex("content") < 0 {
			return ErrMissingContentGroup
		}
	}
	return nil
}

// ValidateIngest checks the settings the ingest command needs.
func (c *Config) ValidateIngest() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.Collection == "" {
		return ErrNoCollection
	}
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return ErrInvalidChunkOverlap
	}
	if c.EmbeddingBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}

// ValidateAsk checks the settings the ask command needs.
func (c *Config) ValidateAsk() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.MaxHits <= 0 {
		return ErrInvalidMaxHits
	}
	if c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		return ErrInvalidMinSimilarity
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.VectorStore {
	case VectorStoreSQLite, VectorStoreMemory:
		return nil
	case VectorStoreQdrant:
		if u, err := url.Parse(c.QdrantURL); err != nil || u.Host == "" {
			return ErrInvalidQdrantURL
		}
		return nil
	default:
		return ErrInvalidVectorStore
	}
}
