package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/ragcrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleCrawl(startURL string, started time.Time) *model.CrawlResult {
	result := model.NewCrawlResult(startURL, 1)
	result.StartedAt = started
	result.FinishedAt = started.Add(3 * time.Second)
	result.SetDiscovered([]string{startURL, startURL + "/a", startURL + "/b"})
	result.AddPage(model.PageOutcome{URL: startURL, Depth: 0, MediaType: "text/html", Status: model.PageStatusWritten, TextPath: "out/text/a.txt"})
	result.AddPage(model.PageOutcome{URL: startURL + "/a", Depth: 1, MediaType: "application/pdf", Status: model.PageStatusWritten})
	result.AddPage(model.PageOutcome{URL: startURL + "/b", Depth: 1, Status: model.PageStatusFailed, Error: "status 404"})
	return result
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, DBFileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		id, err := db.SaveCrawl(t.Context(), sampleCrawl("https://example.com", time.Now()))
		if err != nil {
			t.Fatalf("failed to save crawl: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		got, err := db.GetCrawl(t.Context(), id)
		if err != nil || got == nil {
			t.Fatalf("expected stored crawl, got %v, %v", got, err)
		}
	})
}

func TestSaveAndGetCrawl(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	id, err := db.SaveCrawl(ctx, sampleCrawl("https://example.com", started))
	if err != nil {
		t.Fatalf("failed to save crawl: %v", err)
	}

	got, err := db.GetCrawl(ctx, id)
	if err != nil {
		t.Fatalf("failed to get crawl: %v", err)
	}
	if got.StartURL != "https://example.com" || got.MaxDepth != 1 {
		t.Errorf("unexpected crawl: %+v", got)
	}
	if len(got.Discovered) != 3 || len(got.Pages) != 3 {
		t.Errorf("expected 3 discovered and 3 pages, got %d and %d", len(got.Discovered), len(got.Pages))
	}
	if got.Pages[2].Status != model.PageStatusFailed {
		t.Errorf("expected status to round-trip, got %v", got.Pages[2].Status)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("expected start %v, got %v", started, got.StartedAt)
	}

	missing, err := db.GetCrawl(ctx, id+100)
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing run, got %v, %v", missing, err)
	}
}

func TestListCrawls(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, u := range []string{"https://a.example", "https://b.example", "https://a.example"} {
		if _, err := db.SaveCrawl(ctx, sampleCrawl(u, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("failed to save crawl: %v", err)
		}
	}

	all, err := db.ListCrawls(ctx, "")
	if err != nil {
		t.Fatalf("failed to list crawls: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if !all[0].StartedAt.After(all[1].StartedAt) {
		t.Error("expected newest run first")
	}

	onlyA, err := db.ListCrawls(ctx, "https://a.example")
	if err != nil {
		t.Fatalf("failed to list crawls: %v", err)
	}
	if len(onlyA) != 2 {
		t.Errorf("expected 2 runs for a.example, got %d", len(onlyA))
	}
	meta := onlyA[0]
	if meta.StatusSummary["written"] != 2 || meta.StatusSummary["failed"] != 1 {
		t.Errorf("unexpected status summary: %v", meta.StatusSummary)
	}
	if meta.Duration != 3*time.Second || meta.Discovered != 3 {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	latest, err := db.GetLatestCrawl(ctx, "https://a.example")
	if err != nil || latest == nil {
		t.Fatalf("expected latest crawl, got %v, %v", latest, err)
	}
	if !latest.StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("expected the newest a.example run, got %v", latest.StartedAt)
	}

	none, err := db.GetLatestCrawl(ctx, "https://never.example")
	if err != nil || none != nil {
		t.Errorf("expected nil, got %v, %v", none, err)
	}
}

func TestHasRecentWrite(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := t.Context()
	if _, err := db.SaveCrawl(ctx, sampleCrawl("https://example.com", time.Now())); err != nil {
		t.Fatalf("failed to save crawl: %v", err)
	}

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "written page", url: "https://example.com", want: true},
		{name: "failed page", url: "https://example.com/b", want: false},
		{name: "unknown page", url: "https://other.example", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := db.HasRecentWrite(ctx, tt.url, time.Hour)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasRecentWrite(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{in: "2026-01-02 03:04:05"},
		{in: "2026-01-02T03:04:05Z"},
		{in: "2026-01-02T03:04:05.123456789Z"},
		{in: "not a time", zero: true},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
		}
	}
}
