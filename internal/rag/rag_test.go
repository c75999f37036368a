package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/ragcrawl/internal/embed"
	"github.com/nao1215/ragcrawl/internal/vectorstore"
)

// fakeEmbedder splits on newlines and embeds a chunk by its first letter,
// so texts sharing a first letter are identical vectors.
type fakeEmbedder struct {
	mu      sync.Mutex
	failOn  string
	queries []string
}

func letterVector(s string) []float32 {
	vec := make([]float32, 26)
	s = strings.ToLower(strings.TrimSpace(s))
	if s != "" && s[0] >= 'a' && s[0] <= 'z' {
		vec[s[0]-'a'] = 1
	}
	return vec
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, _ embed.ChunkOptions) (map[string][]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding failed")
	}
	out := make(map[string][]float32)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out[line] = letterVector(line)
		}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()
	return letterVector(text), nil
}

func writeText(t *testing.T, out, rel, content string) string {
	t.Helper()
	path := filepath.Join(out, "text", rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngest(t *testing.T) {
	t.Parallel()

	t.Run("embeds stores and moves every file", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		writeText(t, out, "example.com/a.txt", "apple pie\nbanana bread")
		writeText(t, out, "example.com/sub/b.txt", "cherry tart")
		writeText(t, out, "other.org/c.txt", "")
		store := vectorstore.NewMemoryStore()

		stats, err := NewIngester(&fakeEmbedder{}, store, out, "docs").Ingest(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.Files != 3 || stats.Chunks != 3 || stats.Collection != "docs" {
			t.Errorf("unexpected stats: %+v", stats)
		}
		if store.Len("docs") != 3 {
			t.Errorf("expected 3 points, got %d", store.Len("docs"))
		}
		for _, rel := range []string{"example.com/a.txt", "example.com/sub/b.txt", "other.org/c.txt"} {
			if _, err := os.Stat(filepath.Join(out, "processed", rel)); err != nil {
				t.Errorf("expected %s under processed/: %v", rel, err)
			}
			if _, err := os.Stat(filepath.Join(out, "text", rel)); !os.IsNotExist(err) {
				t.Errorf("expected %s to leave text/", rel)
			}
		}
	})

	t.Run("failed file stays for the next run", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		bad := writeText(t, out, "a/bad.txt", "poison")
		writeText(t, out, "a/good.txt", "good")
		store := vectorstore.NewMemoryStore()

		stats, err := NewIngester(&fakeEmbedder{failOn: "poison"}, store, out, "docs").Ingest(t.Context())
		if err == nil {
			t.Fatal("expected error for the failing file")
		}
		if stats.Files != 1 {
			t.Errorf("expected 1 ingested file, got %d", stats.Files)
		}
		if _, err := os.Stat(bad); err != nil {
			t.Errorf("failed file should remain in text/: %v", err)
		}
	})

	t.Run("recreate drops existing points", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		store := vectorstore.NewMemoryStore()
		ctx := t.Context()
		_ = store.CreateCollection(ctx, "docs", 26)
		_ = store.Upsert(ctx, "docs", map[string][]float32{"stale": letterVector("stale")})
		writeText(t, out, "a/fresh.txt", "fresh")

		if _, err := NewIngester(&fakeEmbedder{}, store, out, "docs", WithRecreate(true)).Ingest(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.Len("docs") != 1 {
			t.Errorf("expected only the fresh point, got %d", store.Len("docs"))
		}
	})

	t.Run("missing text directory is not an error", func(t *testing.T) {
		t.Parallel()

		stats, err := NewIngester(&fakeEmbedder{}, vectorstore.NewMemoryStore(), t.TempDir(), "docs").Ingest(t.Context())
		if err != nil || stats.Files != 0 {
			t.Errorf("expected empty run, got %+v, %v", stats, err)
		}
	})
}

// fakeModel answers with the context it was given.
type fakeModel struct {
	mu           sync.Mutex
	hypothetical string
	contexts     []string
	err          error
}

func (m *fakeModel) Respond(_ context.Context, retrieved, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.contexts = append(m.contexts, retrieved)
	return "answer from: " + retrieved, nil
}

func (m *fakeModel) HypotheticalAnswer(context.Context, string) (string, error) {
	return m.hypothetical, nil
}

func seededStore(t *testing.T) vectorstore.Store {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	ctx := t.Context()
	if err := store.CreateCollection(ctx, "docs", 26); err != nil {
		t.Fatal(err)
	}
	err := store.Upsert(ctx, "docs", map[string][]float32{
		"apple facts":  letterVector("apple"),
		"zebra facts":  letterVector("zebra"),
		"quokka facts": letterVector("quokka"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestAsk(t *testing.T) {
	t.Parallel()

	t.Run("direct retrieval only", func(t *testing.T) {
		t.Parallel()

		m := &fakeModel{}
		asker := NewAsker(&fakeEmbedder{}, seededStore(t), m, WithMinSimilarity(0.5))

		got, err := asker.Ask(t.Context(), "a question about apples")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.DirectContext) != 1 || got.DirectContext[0].Text != "apple facts" {
			t.Errorf("unexpected direct context: %+v", got.DirectContext)
		}
		if !strings.Contains(got.Direct, "apple facts") {
			t.Errorf("unexpected answer %q", got.Direct)
		}
		if got.HyDE != "" || got.Hypothetical != "" {
			t.Error("HyDE answer produced while disabled")
		}
	})

	t.Run("hyde retrieves with the hypothetical answer", func(t *testing.T) {
		t.Parallel()

		m := &fakeModel{hypothetical: "zebras are striped"}
		emb := &fakeEmbedder{}
		asker := NewAsker(emb, seededStore(t), m, WithHyDE(true), WithMinSimilarity(0.5), WithCollections("docs"))

		got, err := asker.Ask(t.Context(), "a question about apples")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Hypothetical != "zebras are striped" {
			t.Errorf("unexpected hypothetical %q", got.Hypothetical)
		}
		if len(got.HyDEContext) != 1 || got.HyDEContext[0].Text != "zebra facts" {
			t.Errorf("unexpected hyde context: %+v", got.HyDEContext)
		}
		if !strings.Contains(got.HyDE, "zebra facts") {
			t.Errorf("unexpected hyde answer %q", got.HyDE)
		}
		if len(emb.queries) != 2 {
			t.Errorf("expected question and hypothetical embedded, got %v", emb.queries)
		}
	})

	t.Run("max hits bounds context", func(t *testing.T) {
		t.Parallel()

		asker := NewAsker(&fakeEmbedder{}, seededStore(t), &fakeModel{}, WithMaxHits(2))
		got, err := asker.Ask(t.Context(), "apple")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.DirectContext) != 2 {
			t.Errorf("expected 2 hits, got %d", len(got.DirectContext))
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		asker := NewAsker(&fakeEmbedder{}, seededStore(t), &fakeModel{})
		if _, err := asker.Ask(t.Context(), ""); !errors.Is(err, ErrEmptyQuestion) {
			t.Errorf("expected ErrEmptyQuestion, got %v", err)
		}

		wantErr := errors.New("model down")
		asker = NewAsker(&fakeEmbedder{}, seededStore(t), &fakeModel{err: wantErr})
		if _, err := asker.Ask(t.Context(), "apple"); !errors.Is(err, wantErr) {
			t.Errorf("expected model error, got %v", err)
		}

		asker = NewAsker(&fakeEmbedder{}, vectorstore.NewMemoryStore(), &fakeModel{}, WithCollections("missing"))
		if _, err := asker.Ask(t.Context(), "apple"); !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
	})
}
