package driving

import (
	"context"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
)

// Ingestor drives the ingestion pipeline.
type Ingestor interface {
	// IngestDocument ingests a single document by its logical key and
	// returns the number of chunks stored. Re-ingestion overwrites the
	// document's previous chunks.
	IngestDocument(ctx context.Context, key string) (int, error)

	// IngestAll ingests every eligible document in storage. A single
	// document's failure is recorded in the report and does not stop
	// the rest of the batch.
	IngestAll(ctx context.Context) (*domain.IngestReport, error)

	// RemoveDocument deletes a document's chunks from the index by its
	// logical key.
	RemoveDocument(ctx context.Context, key string) error
}
