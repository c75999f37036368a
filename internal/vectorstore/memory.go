package vectorstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/nao1215/ragcrawl/internal/model"
)

type memoryCollection struct {
	dimension int
	points    map[string][]float32
}

// MemoryStore is a Store held in process memory with brute-force search.
// It backs tests and one-shot `run` invocations that need no persistence.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// CreateCollection implements Store.
func (s *MemoryStore) CreateCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dimension != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d", ErrDimensionMismatch, name, c.dimension, dimension)
		}
		return nil
	}
	s.collections[name] = &memoryCollection{dimension: dimension, points: make(map[string][]float32)}
	return nil
}

// DropCollection implements Store.
func (s *MemoryStore) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(_ context.Context, name string, vectors map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	for _, vec := range vectors {
		if len(vec) != c.dimension {
			return fmt.Errorf("%w: got %d, collection %s has %d", ErrDimensionMismatch, len(vec), name, c.dimension)
		}
	}
	for text, vec := range vectors {
		c.points[text] = slices.Clone(vec)
	}
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(_ context.Context, vector []float32, names []string, maxHits int, minSimilarity float64) ([]model.ScoredText, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	explicit := len(names) > 0
	if !explicit {
		names = slices.Sorted(maps.Keys(s.collections))
	}

	var hits []model.ScoredText
	for _, name := range names {
		c, ok := s.collections[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		if c.dimension != len(vector) {
			if explicit {
				return nil, fmt.Errorf("%w: query has %d, collection %s has %d", ErrDimensionMismatch, len(vector), name, c.dimension)
			}
			continue
		}
		for text, vec := range c.points {
			score := Cosine(vector, vec)
			if float64(score) < minSimilarity {
				continue
			}
			hits = append(hits, model.ScoredText{Text: text, Score: score, Collection: name})
		}
	}
	return Rank(hits, maxHits), nil
}

// Len returns the number of points in the collection, or 0 if it does not exist.
func (s *MemoryStore) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.points)
	}
	return 0
}
