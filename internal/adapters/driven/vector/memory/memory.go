// Package memory provides an in-memory vector store for tests and
// single-shot local runs. Search is a linear cosine scan.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps points in a map guarded by a RWMutex.
type Store struct {
	mu         sync.RWMutex
	points     map[string]driven.Point
	dimensions int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{points: make(map[string]driven.Point)}
}

// EnsureCollection records the dimensionality. Idempotent.
func (s *Store) EnsureCollection(_ context.Context, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions == 0 {
		s.dimensions = dimensions
	}
	return nil
}

// Upsert stores the points, overwriting points with the same IDs.
func (s *Store) Upsert(_ context.Context, points []driven.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

// Search returns the closest points by cosine similarity.
func (s *Store) Search(_ context.Context, vector []float32, limit int) ([]domain.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.RetrievedChunk, 0, len(s.points))
	for _, p := range s.points {
		results = append(results, domain.RetrievedChunk{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// DeleteByDocument removes every point belonging to the document.
func (s *Store) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, p := range s.points {
		if p.Payload.DocumentID == documentID {
			delete(s.points, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close releases resources.
func (s *Store) Close() error { return nil }

// Len returns the number of stored points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
