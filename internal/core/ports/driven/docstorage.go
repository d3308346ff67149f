package driven

import "context"

// DocumentStorage lists and fetches source documents.
//
// Implementations may include:
//   - S3-compatible object storage (the production source)
//   - A local directory (development, watch mode)
type DocumentStorage interface {
	// List returns the logical keys of all eligible documents,
	// filtered to the document-type suffix the storage is configured
	// for. Ordering is stable for a given storage state.
	List(ctx context.Context) ([]string, error)

	// Fetch returns the raw bytes of the document at key.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Ping validates the storage is reachable.
	Ping(ctx context.Context) error
}
