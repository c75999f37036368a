package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinels so callers can use errors.Is
// while users still get a message that names the offending flag.
var (
	// ErrNoStartURL is returned when crawl is run without a start URL.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidStartURL is returned for a start URL that is not an absolute http(s) URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http or https URL")

	// ErrInvalidMaxDepth is returned for a negative --depth.
	ErrInvalidMaxDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidWorkers is returned when --workers is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidTimeout is returned when --timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned for a negative body size limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidURLFilter is returned when --url-filter does not compile.
	ErrInvalidURLFilter = errors.New("invalid URL filter: not a valid regular expression")

	// ErrInvalidContentFilter is returned when --content-filter does not compile.
	ErrInvalidContentFilter = errors.New("invalid content filter: not a valid regular expression")

	// ErrMissingContentGroup is returned when --content-filter has no (?P<content>...) group.
	ErrMissingContentGroup = errors.New(`invalid content filter: missing named group "content"`)

	// ErrNoCollection is returned when the collection name is empty.
	ErrNoCollection = errors.New("no collection specified")

	// ErrInvalidChunkSize is returned when --chunk-size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidChunkOverlap is returned when the overlap is negative or not smaller than the chunk size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap: must be non-negative and smaller than the chunk size")

	// ErrInvalidBatchSize is returned when the embedding batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid embedding batch size: must be positive")

	// ErrInvalidMaxHits is returned when --max-hits is not positive.
	ErrInvalidMaxHits = errors.New("invalid max hits: must be positive")

	// ErrInvalidMinSimilarity is returned when --min-similarity is outside [-1, 1].
	ErrInvalidMinSimilarity = errors.New("invalid min similarity: must be between -1 and 1")

	// ErrInvalidVectorStore is returned for an unknown --store.
	ErrInvalidVectorStore = errors.New("invalid vector store: must be sqlite, qdrant or memory")

	// ErrInvalidQdrantURL is returned when the Qdrant URL is not absolute.
	ErrInvalidQdrantURL = errors.New("invalid Qdrant URL")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
