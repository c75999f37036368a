package vectorstore

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"

	"github.com/nao1215/ragcrawl/internal/model"
)

var (
	// ErrCollectionNotFound is returned when a named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch is returned when a vector does not match the
	// dimension of its collection.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDimension is returned for a non-positive collection dimension.
	ErrInvalidDimension = errors.New("invalid vector dimension")

	// ErrUnexpectedStatus is returned when the Qdrant API answers with a
	// status the client does not handle.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Store keeps (text, vector) pairs in named collections and answers
// nearest-neighbour queries by cosine similarity.
type Store interface {
	// CreateCollection creates the collection if it does not exist.
	// An existing collection of the same dimension is left untouched.
	CreateCollection(ctx context.Context, name string, dimension int) error

	// DropCollection removes the collection. Dropping a missing
	// collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// Upsert stores every text with its vector. Storing a text again
	// replaces its vector.
	Upsert(ctx context.Context, name string, vectors map[string][]float32) error

	// Query returns up to maxHits texts scoring at least minSimilarity
	// against vector, best first. Empty names searches every collection
	// whose dimension matches the vector.
	Query(ctx context.Context, vector []float32, names []string, maxHits int, minSimilarity float64) ([]model.ScoredText, error)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Rank sorts hits by descending score, breaking ties by text so that
// results are deterministic, and keeps at most maxHits of them.
func Rank(hits []model.ScoredText, maxHits int) []model.ScoredText {
	slices.SortFunc(hits, func(a, b model.ScoredText) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
	if maxHits > 0 && len(hits) > maxHits {
		hits = hits[:maxHits]
	}
	return hits
}
