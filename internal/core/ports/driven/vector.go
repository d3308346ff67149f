package driven

import (
	"context"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
)

// Point is a vector plus its payload, keyed by a deterministic chunk ID.
type Point struct {
	// ID is the chunk's point ID (a UUID string).
	ID string

	// Vector is the embedding, with the collection's dimensionality.
	Vector []float32

	// Payload is the chunk payload stored alongside the vector.
	Payload domain.ChunkPayload
}

// VectorStore persists embeddings and supports similarity search.
// The collection (dimensionality, cosine metric) is established once at
// startup via EnsureCollection and treated as read/append-shared after
// that; concurrent upserts, deletes and searches rely on the backend's
// own per-call consistency.
type VectorStore interface {
	// EnsureCollection creates the collection if absent and is a no-op
	// if it already exists. Idempotent.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert stores the points as one batch, overwriting points with
	// the same IDs.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the closest points to the query vector, ordered by
	// descending similarity, at most limit results.
	Search(ctx context.Context, vector []float32, limit int) ([]domain.RetrievedChunk, error)

	// DeleteByDocument removes every point whose payload document_id
	// matches, returning the number of points removed.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// Ping validates the index is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
