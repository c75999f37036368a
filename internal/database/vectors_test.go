package database

import (
	"errors"
	"testing"

	"github.com/nao1215/ragcrawl/internal/vectorstore"
)

func TestVectorStore(t *testing.T) {
	t.Parallel()

	t.Run("upsert and query", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		s := setupTestDB(t).VectorStore()
		if err := s.CreateCollection(ctx, "docs", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := s.Upsert(ctx, "docs", map[string][]float32{
			"east":  {1, 0},
			"north": {0, 1},
			"ne":    {1, 1},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		hits, err := s.Query(ctx, []float32{1, 0}, []string{"docs"}, 10, 0.5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hits) != 2 || hits[0].Text != "east" || hits[1].Text != "ne" {
			t.Errorf("unexpected hits: %+v", hits)
		}
		if hits[0].Score < 0.999 {
			t.Errorf("expected exact match score 1, got %v", hits[0].Score)
		}
	})

	t.Run("upsert replaces and drop removes points", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		s := setupTestDB(t).VectorStore()
		_ = s.CreateCollection(ctx, "docs", 2)
		_ = s.Upsert(ctx, "docs", map[string][]float32{"t": {1, 0}})
		_ = s.Upsert(ctx, "docs", map[string][]float32{"t": {0, 1}})

		if n, _ := s.Count(ctx, "docs"); n != 1 {
			t.Errorf("expected 1 point, got %d", n)
		}
		hits, _ := s.Query(ctx, []float32{0, 1}, []string{"docs"}, 1, 0.9)
		if len(hits) != 1 {
			t.Errorf("expected replaced vector to match, got %+v", hits)
		}

		if err := s.DropCollection(ctx, "docs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n, _ := s.Count(ctx, "docs"); n != 0 {
			t.Errorf("expected points to be dropped, got %d", n)
		}
		if err := s.DropCollection(ctx, "docs"); err != nil {
			t.Errorf("dropping a missing collection should succeed, got %v", err)
		}
	})

	t.Run("query all collections", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		s := setupTestDB(t).VectorStore()
		_ = s.CreateCollection(ctx, "a", 2)
		_ = s.CreateCollection(ctx, "b", 2)
		_ = s.CreateCollection(ctx, "wide", 3)
		_ = s.Upsert(ctx, "a", map[string][]float32{"from a": {1, 0}})
		_ = s.Upsert(ctx, "b", map[string][]float32{"from b": {1, 1}})
		_ = s.Upsert(ctx, "wide", map[string][]float32{"from wide": {1, 0, 0}})

		hits, err := s.Query(ctx, []float32{1, 0}, nil, 10, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hits) != 2 || hits[0].Collection != "a" || hits[1].Collection != "b" {
			t.Errorf("unexpected hits: %+v", hits)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		s := setupTestDB(t).VectorStore()
		if err := s.CreateCollection(ctx, "docs", -1); !errors.Is(err, vectorstore.ErrInvalidDimension) {
			t.Errorf("expected ErrInvalidDimension, got %v", err)
		}
		if err := s.Upsert(ctx, "missing", map[string][]float32{"t": {1}}); !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			t.Errorf("expected ErrCollectionNotFound, got %v", err)
		}
		_ = s.CreateCollection(ctx, "docs", 2)
		if err := s.CreateCollection(ctx, "docs", 3); !errors.Is(err, vectorstore.ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
		if err := s.Upsert(ctx, "docs", map[string][]float32{"t": {1, 2, 3}}); !errors.Is(err, vectorstore.ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
		if _, err := s.Query(ctx, []float32{1}, []string{"docs"}, 1, 0); !errors.Is(err, vectorstore.ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})
}

func TestVectorEncoding(t *testing.T) {
	t.Parallel()

	in := []float32{0, 1.5, -2.25, 3e-7}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("expected %d values, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("value %d: got %v, want %v", i, out[i], in[i])
		}
	}
}
