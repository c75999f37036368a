package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/ragcrawl/internal/model"
)

const (
	// DefaultQdrantTimeout bounds each Qdrant request.
	DefaultQdrantTimeout = 30 * time.Second

	// DefaultUpsertBatchSize is the number of points per upsert request.
	DefaultUpsertBatchSize = 256

	// payloadTextKey is the payload field holding the chunk text.
	payloadTextKey = "text"
)

// pointNamespace seeds the deterministic point IDs. A chunk stored twice in
// the same collection gets the same ID, so re-ingesting a page overwrites
// instead of duplicating.
var pointNamespace = uuid.MustParse("6f1c1f52-5a8e-4b8e-9a54-3c2a8c0a7e11")

// QdrantStore is a Store backed by the Qdrant REST API.
//
// Design decision: plain JSON over net/http against the REST API. Only
// five endpoints are used; the gRPC client is not needed.
type QdrantStore struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	batchSize int
}

var _ Store = (*QdrantStore)(nil)

// QdrantOption configures a QdrantStore.
type QdrantOption func(*QdrantStore)

// WithAPIKey authenticates requests with the api-key header (Qdrant Cloud).
func WithAPIKey(key string) QdrantOption {
	return func(s *QdrantStore) {
		s.apiKey = key
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) QdrantOption {
	return func(s *QdrantStore) {
		if client != nil {
			s.client = client
		}
	}
}

// WithUpsertBatchSize sets the number of points per upsert request.
func WithUpsertBatchSize(n int) QdrantOption {
	return func(s *QdrantStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewQdrantStore creates a QdrantStore for the REST endpoint at baseURL,
// e.g. http://localhost:6333.
func NewQdrantStore(baseURL string, opts ...QdrantOption) *QdrantStore {
	s := &QdrantStore{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: DefaultQdrantTimeout},
		batchSize: DefaultUpsertBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type qdrantVectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type qdrantCollectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors qdrantVectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type qdrantCollectionList struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type qdrantSearchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold float64   `json:"score_threshold"`
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float32        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// CreateCollection implements Store.
func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, dimension)
	}

	existing, err := s.collectionDimension(ctx, name)
	switch {
	case err == nil:
		if existing != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d", ErrDimensionMismatch, name, existing, dimension)
		}
		return nil
	case !isNotFound(err):
		return err
	}

	body := map[string]any{
		"vectors": qdrantVectorParams{Size: dimension, Distance: "Cosine"},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(name), body, nil)
}

// DropCollection implements Store.
func (s *QdrantStore) DropCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, s.collectionURL(name), nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// Upsert implements Store.
func (s *QdrantStore) Upsert(ctx context.Context, name string, vectors map[string][]float32) error {
	texts := slices.Sorted(maps.Keys(vectors))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		points := make([]qdrantPoint, 0, end-start)
		for _, text := range texts[start:end] {
			points = append(points, qdrantPoint{
				ID:      PointID(name, text),
				Vector:  vectors[text],
				Payload: map[string]any{payloadTextKey: text},
			})
		}
		err := s.do(ctx, http.MethodPut, s.collectionURL(name)+"/points?wait=true", map[string]any{"points": points}, nil)
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		if err != nil {
			return fmt.Errorf("failed to upsert points %d-%d into %s: %w", start, end, name, err)
		}
	}
	return nil
}

// Query implements Store.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, names []string, maxHits int, minSimilarity float64) ([]model.ScoredText, error) {
	if len(names) == 0 {
		var err error
		names, err = s.matchingCollections(ctx, len(vector))
		if err != nil {
			return nil, err
		}
	}

	var hits []model.ScoredText
	for _, name := range names {
		req := qdrantSearchRequest{
			Vector:         vector,
			Limit:          maxHits,
			WithPayload:    true,
			ScoreThreshold: minSimilarity,
		}
		var resp qdrantSearchResponse
		err := s.do(ctx, http.MethodPost, s.collectionURL(name)+"/points/search", req, &resp)
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", name, err)
		}
		for _, r := range resp.Result {
			text, _ := r.Payload[payloadTextKey].(string)
			hits = append(hits, model.ScoredText{Text: text, Score: r.Score, Collection: name})
		}
	}
	return Rank(hits, maxHits), nil
}

// PointID returns the deterministic Qdrant point ID of text in collection.
func PointID(collection, text string) string {
	return uuid.NewSHA1(pointNamespace, []byte(collection+"\x00"+text)).String()
}

// matchingCollections lists every collection whose vectors have dimension dim.
func (s *QdrantStore) matchingCollections(ctx context.Context, dim int) ([]string, error) {
	var list qdrantCollectionList
	if err := s.do(ctx, http.MethodGet, s.baseURL+"/collections", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var names []string
	for _, c := range list.Result.Collections {
		size, err := s.collectionDimension(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		if size == dim {
			names = append(names, c.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *QdrantStore) collectionDimension(ctx context.Context, name string) (int, error) {
	var info qdrantCollectionInfo
	if err := s.do(ctx, http.MethodGet, s.collectionURL(name), nil, &info); err != nil {
		return 0, err
	}
	return info.Result.Config.Params.Vectors.Size, nil
}

func (s *QdrantStore) collectionURL(name string) string {
	return s.baseURL + "/collections/" + url.PathEscape(name)
}

// statusError carries the HTTP status of a failed Qdrant request.
type statusError struct {
	method string
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s: status %d: %s", e.method, e.url, e.status, e.body)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// do sends body as JSON and decodes the response into out when out is
// non-nil. Any status outside 2xx is returned as *statusError.
func (s *QdrantStore) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{method: method, url: target, status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode qdrant response: %w", err)
	}
	return nil
}
