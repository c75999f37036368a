package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nao1215/ragcrawl/internal/report"
)

// newDocsServer serves a two-page site: the index links to /guide and to
// a missing page. Links are absolute because relative links resolve to
// https and the test server speaks plain http.
func newDocsServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><h1>Docs</h1><a href="%[1]s/guide">Guide</a><a href="%[1]s/missing">Missing</a></body></html>`, "http://"+r.Host)
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>Install with go install.</p></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("requires a url", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, nil); err == nil {
			t.Error("expected error without arguments")
		}
	})

	t.Run("has crawl flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"depth", "workers", "allow", "ignore", "url-filter", "content-filter",
			"skip-non-matching", "timeout", "proxy", "redis-url", "no-db", "batch", "output-dir", "json", "markdown"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

func TestRunCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("crawls the site and writes text and report", func(t *testing.T) {
		t.Parallel()

		srv := newDocsServer(t)
		outDir := t.TempDir()
		reportPath := filepath.Join(t.TempDir(), "crawl.json")

		stdout, err := execute(t, "crawl",
			"--config", writeConfigFile(t, ""),
			"--no-db", "-O", outDir, "-d", "1",
			"--json", "-o", reportPath,
			srv.URL+"/",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "RAGCRAWL REPORT") {
			t.Errorf("expected text summary on stdout, got %q", stdout)
		}

		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var decoded report.JSONReport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("report is not JSON: %v", err)
		}
		crawl := decoded.Session.Crawl
		if crawl == nil {
			t.Fatal("expected crawl in report")
		}
		if len(crawl.Discovered) != 3 {
			t.Errorf("Discovered = %v, want 3 URLs", crawl.Discovered)
		}
		if decoded.StatusCounts["written"] != 2 || decoded.StatusCounts["failed"] != 1 {
			t.Errorf("StatusCounts = %v", decoded.StatusCounts)
		}

		var texts []string
		err = filepath.WalkDir(filepath.Join(outDir, "text"), func(path string, d os.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				texts = append(texts, path)
			}
			return err
		})
		if err != nil {
			t.Fatalf("failed to walk text dir: %v", err)
		}
		if len(texts) != 2 {
			t.Errorf("expected 2 text files, got %v", texts)
		}
	})

	t.Run("records the crawl and lists it in history", func(t *testing.T) {
		t.Parallel()

		srv := newDocsServer(t)
		dbDir := t.TempDir()
		cfgPath := writeConfigFile(t, "")

		if _, err := execute(t, "crawl", "--config", cfgPath, "--db-dir", dbDir, "-O", t.TempDir(), "-d", "0", srv.URL+"/"); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		list, err := execute(t, "history", "--config", cfgPath, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(list, srv.URL+"/") || !strings.Contains(list, "written=1") {
			t.Errorf("expected crawl in history, got %q", list)
		}

		shown, err := execute(t, "history", "--config", cfgPath, "--db-dir", dbDir, "--latest", "--markdown", srv.URL+"/")
		if err != nil {
			t.Fatalf("history --latest failed: %v", err)
		}
		if !strings.Contains(shown, "# ragcrawl Report") {
			t.Errorf("expected markdown report, got %q", shown)
		}

		recent, err := execute(t, "history", "--config", cfgPath, "--db-dir", dbDir, "--written-within", "1h", srv.URL+"/")
		if err != nil {
			t.Fatalf("history --written-within failed: %v", err)
		}
		if !strings.Contains(recent, ": written within 1h0m0s") {
			t.Errorf("expected recent write, got %q", recent)
		}

		if _, err := execute(t, "history", "--config", cfgPath, "--db-dir", dbDir, "--id", "999"); err == nil {
			t.Error("expected error for unknown crawl id")
		}
	})

	t.Run("redis seen set refuses a rerun until fresh", func(t *testing.T) {
		t.Parallel()

		srv := newDocsServer(t)
		mr := miniredis.RunT(t)
		redisURL := "redis://" + mr.Addr() + "/0"
		args := []string{"crawl", "--config", writeConfigFile(t, ""), "--no-db", "-O", t.TempDir(), "-d", "1", "--redis-url", redisURL}

		if _, err := execute(t, append(args, srv.URL+"/")...); err != nil && !errors.Is(err, ErrStepsFailed) {
			t.Fatalf("first crawl failed: %v", err)
		}
		members, err := mr.Members("ragcrawl:seen:" + srv.URL)
		if err != nil || len(members) != 3 {
			t.Fatalf("seen set = %v, %v; want 3 URLs", members, err)
		}

		stdout, err := execute(t, append(args, srv.URL)...)
		if !errors.Is(err, ErrStepsFailed) {
			t.Fatalf("expected ErrStepsFailed on rerun, got %v", err)
		}
		if !strings.Contains(stdout, "start URL already crawled") {
			t.Errorf("expected already crawled error in report, got %q", stdout)
		}

		stdout, err = execute(t, append(args, "--fresh", srv.URL+"/")...)
		if err != nil && !errors.Is(err, ErrStepsFailed) {
			t.Fatalf("fresh crawl failed: %v", err)
		}
		if strings.Contains(stdout, "already crawled") {
			t.Errorf("expected --fresh to reset the seen set, got %q", stdout)
		}
	})

	t.Run("rejects invalid start url before crawling", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "crawl", "--config", writeConfigFile(t, ""), "--no-db", "-O", t.TempDir(), "ftp://example.com")
		if err == nil || !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("expected configuration error, got %v", err)
		}
	})

	t.Run("rejects content filter without content group", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "crawl", "--config", writeConfigFile(t, ""), "--no-db", "-O", t.TempDir(),
			"--content-filter", "(?s)<main>.*</main>", "https://example.com/")
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("rejects conflicting report formats", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "crawl", "--config", writeConfigFile(t, ""), "--no-db", "--json", "--markdown", "https://example.com/")
		if err == nil || !strings.Contains(err.Error(), "conflicting") {
			t.Errorf("expected conflicting formats error, got %v", err)
		}
	})
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("latest requires a url", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "history", "--config", writeConfigFile(t, ""), "--db-dir", t.TempDir(), "--latest")
		if err == nil || !strings.Contains(err.Error(), "require a URL") {
			t.Errorf("expected --latest error, got %v", err)
		}
	})

	t.Run("missing database is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := execute(t, "history", "--config", writeConfigFile(t, ""), "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error for missing database")
		}
	})
}

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	got := formatSummary(map[string]int{"written": 3, "failed": 1})
	if got != "failed=1 written=3" {
		t.Errorf("formatSummary = %q", got)
	}
}
