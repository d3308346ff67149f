// Package qdrant provides a vector store adapter speaking Qdrant's
// REST API. Collections use cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "documents"
	DefaultTimeout    = 30 * time.Second

	// scrollPageSize bounds how many point IDs one scroll page returns
	// while collecting a document's chunks for deletion.
	scrollPageSize = 256
)

// Config holds configuration for the Qdrant vector store.
type Config struct {
	// URL is the Qdrant REST base URL (default: http://localhost:6333).
	URL string

	// APIKey authenticates requests when the instance requires it.
	APIKey string

	// Collection is the collection name (default: documents).
	Collection string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Store is a REST client to a Qdrant collection.
type Store struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
}

// New creates a new Qdrant store.
func New(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// EnsureCollection creates the collection with the given dimensionality
// if it does not exist yet. An existing collection is left untouched.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("qdrant: invalid dimensions %d", dimensions)
	}

	if exists, err := s.collectionExists(ctx); err == nil && exists {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		// A concurrent creation can still race us; re-check before
		// reporting failure.
		if exists, checkErr := s.collectionExists(ctx); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("qdrant: create collection: %w", err)
	}

	logger.Debug("Created Qdrant collection %q (dim=%d)", s.collection, dimensions)
	return nil
}

// Upsert stores the points as a single batch. The call waits for the
// write to be applied so a following search sees the new points.
func (s *Store) Upsert(ctx context.Context, points []driven.Point) error {
	if len(points) == 0 {
		return nil
	}

	body := map[string]any{"points": make([]map[string]any, 0, len(points))}
	list := body["points"].([]map[string]any)
	for _, p := range points {
		list = append(list, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}
	body["points"] = list

	if err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search returns the closest points to the query vector, ordered by
// descending similarity.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]domain.RetrievedChunk, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			ID      string              `json:"id"`
			Score   float64             `json:"score"`
			Payload domain.ChunkPayload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunks = append(chunks, domain.RetrievedChunk{
			ID:      r.ID,
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return chunks, nil
}

// DeleteByDocument removes every point whose payload document_id
// matches, returning how many points were removed. Point IDs are
// collected by scrolling the payload filter, then deleted by ID in one
// waited call.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": "document_id", "match": map[string]any{"value": documentID}},
		},
	}

	var ids []string
	var offset any
	for {
		body := map[string]any{
			"filter":       filter,
			"limit":        scrollPageSize,
			"with_payload": false,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					ID string `json:"id"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), body, &resp); err != nil {
			return 0, fmt.Errorf("qdrant: scroll points for document %s: %w", documentID, err)
		}

		for _, p := range resp.Result.Points {
			ids = append(ids, p.ID)
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	if len(ids) == 0 {
		return 0, nil
	}

	body := map[string]any{"points": ids}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil); err != nil {
		return 0, fmt.Errorf("qdrant: delete %d points for document %s: %w", len(ids), documentID, err)
	}
	return len(ids), nil
}

// Ping validates the instance is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, s.url+"/collections", nil, nil); err != nil {
		return fmt.Errorf("qdrant: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// do issues one JSON request and optionally decodes the response body
// into out. Non-2xx statuses become errors carrying the response text.
func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, string(text))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
