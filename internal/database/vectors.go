package database

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/nao1215/ragcrawl/internal/model"
	"github.com/nao1215/ragcrawl/internal/vectorstore"
)

// VectorStore is a vectorstore.Store persisted in the CrawlDB file.
// Vectors are stored as little-endian float32 blobs and searched by brute
// force, which is fast enough for the tens of thousands of chunks a
// documentation crawl produces.
type VectorStore struct {
	cdb *CrawlDB
}

var _ vectorstore.Store = (*VectorStore)(nil)

// VectorStore returns the vector store backed by this database.
func (cdb *CrawlDB) VectorStore() *VectorStore {
	return &VectorStore{cdb: cdb}
}

// CreateCollection implements vectorstore.Store.
func (s *VectorStore) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: %d", vectorstore.ErrInvalidDimension, dimension)
	}

	existing, err := s.dimension(ctx, name)
	switch {
	case err == nil:
		if existing != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
				vectorstore.ErrDimensionMismatch, name, existing, dimension)
		}
		return nil
	case !errors.Is(err, vectorstore.ErrCollectionNotFound):
		return err
	}

	if _, err := s.cdb.db.ExecContext(ctx,
		`INSERT INTO vector_collections (name, dimension) VALUES (?, ?)`, name, dimension); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// DropCollection implements vectorstore.Store.
func (s *VectorStore) DropCollection(ctx context.Context, name string) (err error) {
	tx, err := s.cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM vector_points WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("failed to drop points of %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM vector_collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	return tx.Commit()
}

// Upsert implements vectorstore.Store.
func (s *VectorStore) Upsert(ctx context.Context, name string, vectors map[string][]float32) (err error) {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return err
	}
	for _, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("%w: got %d, collection %s has %d", vectorstore.ErrDimensionMismatch, len(vec), name, dim)
		}
	}

	tx, err := s.cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO vector_points (collection, text, vector) VALUES (?, ?, ?)
	ON CONFLICT(collection, text) DO UPDATE SET vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for text, vec := range vectors {
		if _, err = stmt.ExecContext(ctx, name, text, encodeVector(vec)); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// Query implements vectorstore.Store.
func (s *VectorStore) Query(ctx context.Context, vector []float32, names []string, maxHits int, minSimilarity float64) ([]model.ScoredText, error) {
	explicit := len(names) > 0
	if !explicit {
		var err error
		if names, err = s.collectionNames(ctx); err != nil {
			return nil, err
		}
	}

	var hits []model.ScoredText
	for _, name := range names {
		dim, err := s.dimension(ctx, name)
		if err != nil {
			return nil, err
		}
		if dim != len(vector) {
			if explicit {
				return nil, fmt.Errorf("%w: query has %d, collection %s has %d",
					vectorstore.ErrDimensionMismatch, len(vector), name, dim)
			}
			continue
		}

		found, err := s.scan(ctx, name, vector, minSimilarity)
		if err != nil {
			return nil, err
		}
		hits = append(hits, found...)
	}
	return vectorstore.Rank(hits, maxHits), nil
}

func (s *VectorStore) scan(ctx context.Context, name string, vector []float32, minSimilarity float64) ([]model.ScoredText, error) {
	rows, err := s.cdb.db.QueryContext(ctx, `SELECT text, vector FROM vector_points WHERE collection = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	var hits []model.ScoredText
	for rows.Next() {
		var text string
		var blob []byte
		if err := rows.Scan(&text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		score := vectorstore.Cosine(vector, decodeVector(blob))
		if float64(score) < minSimilarity {
			continue
		}
		hits = append(hits, model.ScoredText{Text: text, Score: score, Collection: name})
	}
	return hits, rows.Err()
}

// Count returns the number of points in a collection.
func (s *VectorStore) Count(ctx context.Context, name string) (int, error) {
	var n int
	if err := s.cdb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_points WHERE collection = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

func (s *VectorStore) dimension(ctx context.Context, name string) (int, error) {
	var dim int
	err := s.cdb.db.QueryRowContext(ctx, `SELECT dimension FROM vector_collections WHERE name = ?`, name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	return dim, nil
}

func (s *VectorStore) collectionNames(ctx context.Context) ([]string, error) {
	rows, err := s.cdb.db.QueryContext(ctx, `SELECT name FROM vector_collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		names = append(names, name)
	}
	return slices.Clip(names), rows.Err()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}
