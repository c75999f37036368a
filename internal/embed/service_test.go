package embed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// fakeClient embeds a text as [len(text), 1].
type fakeClient struct {
	mu      sync.Mutex
	calls   int
	batches []int
	err     error
	short   bool
}

func (f *fakeClient) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.batches = append(f.batches, len(texts))
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range n {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (f *fakeClient) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

var testChunkOptions = ChunkOptions{Size: 12, Overlap: 0, Separators: []string{"\n"}}

func TestServiceEmbed(t *testing.T) {
	t.Parallel()

	t.Run("maps every chunk to its vector", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{}
		svc := NewService(client, WithBatchSize(2))

		got, err := svc.Embed(t.Context(), "first line\nsecond line\nthird line\nfourth", testChunkOptions)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("expected 4 chunks, got %d: %v", len(got), got)
		}
		for chunk, vec := range got {
			if vec[0] != float32(len(chunk)) {
				t.Errorf("chunk %q got vector of another chunk: %v", chunk, vec)
			}
		}
		if client.calls != 2 {
			t.Errorf("expected 2 batched calls, got %d", client.calls)
		}
	})

	t.Run("duplicate chunks are embedded once", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{}
		svc := NewService(client)

		got, err := svc.Embed(t.Context(), "same\n\nsame\nsame", ChunkOptions{Size: 5, Overlap: 0, Separators: []string{"\n"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 distinct chunk, got %v", got)
		}
		if client.batches[0] != 1 {
			t.Errorf("expected one text sent, got %d", client.batches[0])
		}
	})

	t.Run("empty text makes no call", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{}
		got, err := NewService(client).Embed(t.Context(), "  \n ", testChunkOptions)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 || client.calls != 0 {
			t.Errorf("expected no chunks and no calls, got %v and %d calls", got, client.calls)
		}
	})

	t.Run("provider error fails the call", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("rate limited")
		_, err := NewService(&fakeClient{err: wantErr}).Embed(t.Context(), "text", testChunkOptions)
		if !errors.Is(err, wantErr) {
			t.Errorf("expected provider error, got %v", err)
		}
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		t.Parallel()

		_, err := NewService(&fakeClient{short: true}).Embed(t.Context(), "a\nb", ChunkOptions{Size: 1, Overlap: 0, Separators: []string{"\n"}})
		if !errors.Is(err, ErrVectorCountMismatch) {
			t.Errorf("expected ErrVectorCountMismatch, got %v", err)
		}
	})

	t.Run("large text is embedded in bounded batches", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{}
		svc := NewService(client, WithBatchSize(3), WithConcurrency(2))

		var b strings.Builder
		for i := range 10 {
			b.WriteString(strings.Repeat(string(rune('a'+i)), 10))
			b.WriteString("\n")
		}
		got, err := svc.Embed(t.Context(), b.String(), ChunkOptions{Size: 10, Overlap: 0, Separators: []string{"\n"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 10 {
			t.Errorf("expected 10 chunks, got %d", len(got))
		}
		for _, n := range client.batches {
			if n > 3 {
				t.Errorf("batch of %d exceeds batch size", n)
			}
		}
	})
}

func TestServiceEmbedQuery(t *testing.T) {
	t.Parallel()

	vec, err := NewService(&fakeClient{}).EmbedQuery(t.Context(), "  what   is it? ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec[0] != float32(len("what is it?")) {
		t.Errorf("expected normalized query to be embedded, got %v", vec)
	}
}
