package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/ragcrawl/internal/model"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "ragcrawl.db"

// CrawlDB provides SQLite-based storage for crawl history and, when the
// sqlite vector store is selected, embedded chunks.
//
// Design decision: one database file holds both. The crawl history is
// small, vectors are the bulk, and a single file is easy to back up or
// delete as a unit.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	// The pragma is applied to every new connection of the pool.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl; the full result is kept as JSON
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		discovered INTEGER NOT NULL,
		status_summary TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON crawl_runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON crawl_runs(started_at);

	-- Page outcomes, queryable without decoding result_json
	CREATE TABLE IF NOT EXISTS crawl_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		media_type TEXT,
		status TEXT NOT NULL,
		text_path TEXT,
		content_hash TEXT,
		error TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON crawl_pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_run ON crawl_pages(run_id);

	CREATE TABLE IF NOT EXISTS vector_collections (
		name TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vector_points (
		collection TEXT NOT NULL REFERENCES vector_collections(name) ON DELETE CASCADE,
		text TEXT NOT NULL,
		vector BLOB NOT NULL,
		PRIMARY KEY (collection, text)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawl stores a crawl result and its page outcomes in one
// transaction and returns the run ID.
func (cdb *CrawlDB) SaveCrawl(ctx context.Context, result *model.CrawlResult) (id int64, err error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize crawl result: %w", err)
	}
	summaryJSON, err := json.Marshal(statusSummary(result))
	if err != nil {
		return 0, fmt.Errorf("failed to serialize status summary: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (start_url, max_depth, started_at, finished_at, discovered, status_summary, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.StartURL,
		result.MaxDepth,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
		len(result.Discovered),
		string(summaryJSON),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("failed to read crawl run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO crawl_pages (run_id, url, depth, media_type, status, text_path, content_hash, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range result.Pages {
		if _, err = stmt.ExecContext(ctx, id, p.URL, p.Depth, p.MediaType, p.Status.String(), p.TextPath, p.ContentHash, p.Error); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl: %w", err)
	}
	return id, nil
}

// GetCrawl retrieves a crawl result by its run ID.
// It returns nil without error when the run does not exist.
func (cdb *CrawlDB) GetCrawl(ctx context.Context, id int64) (*model.CrawlResult, error) {
	var resultJSON string
	err := cdb.db.QueryRowContext(ctx, `SELECT result_json FROM crawl_runs WHERE id = ?`, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse crawl result: %w", err)
	}
	return &result, nil
}

// CrawlRunMetadata contains summary information about a stored crawl.
// It is used for listing history without decoding every result.
type CrawlRunMetadata struct {
	// ID is the run ID.
	ID int64

	// StartURL is the URL the crawl started from.
	StartURL string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// Duration is how long the crawl took.
	Duration time.Duration

	// Discovered is the number of URLs admitted to the frontier.
	Discovered int

	// StatusSummary counts pages by status name.
	StatusSummary map[string]int
}

// ListCrawls returns metadata of stored crawls, newest first.
// An empty startURL lists every crawl.
func (cdb *CrawlDB) ListCrawls(ctx context.Context, startURL string) ([]CrawlRunMetadata, error) {
	query := `
	SELECT id, start_url, started_at, finished_at, discovered, status_summary
	FROM crawl_runs
	WHERE 1=1
	`
	args := make([]any, 0, 1)
	if startURL != "" {
		query += " AND start_url = ?"
		args = append(args, startURL)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	defer rows.Close()

	var results []CrawlRunMetadata
	for rows.Next() {
		var meta CrawlRunMetadata
		var started, finished string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.StartURL, &started, &finished, &meta.Discovered, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan crawl metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		meta.Duration = parseTimestamp(finished).Sub(meta.StartedAt)
		meta.StatusSummary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.StatusSummary); err != nil {
				meta.StatusSummary = make(map[string]int)
			}
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetLatestCrawl retrieves the most recent crawl of startURL, or nil.
func (cdb *CrawlDB) GetLatestCrawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	var id int64
	err := cdb.db.QueryRowContext(ctx, `
	SELECT id FROM crawl_runs
	WHERE start_url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`, startURL).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest crawl: %w", err)
	}
	return cdb.GetCrawl(ctx, id)
}

// HasRecentWrite reports whether text of pageURL was written within duration.
func (cdb *CrawlDB) HasRecentWrite(ctx context.Context, pageURL string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM crawl_pages
	WHERE url = ? AND status = ? AND timestamp > datetime('now', ?)
	`
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := cdb.db.QueryRowContext(ctx, query, pageURL, model.PageStatusWritten.String(), modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent write: %w", err)
	}
	return count > 0, nil
}

func statusSummary(result *model.CrawlResult) map[string]int {
	summary := make(map[string]int, len(model.PageStatuses))
	for status, n := range result.CountByStatus() {
		summary[status.String()] = n
	}
	return summary
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries every known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
