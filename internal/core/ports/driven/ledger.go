package driven

import (
	"context"
	"time"
)

// DocumentRecord is a ledger entry for one ingested document.
type DocumentRecord struct {
	DocumentID string
	Key        string
	Filename   string
	Chunks     int
	Status     string
	Error      string
	IngestedAt time.Time
}

// IngestLedger records per-document ingestion outcomes. The ledger is
// bookkeeping only: the vector index remains the source of truth for
// what is searchable.
type IngestLedger interface {
	// Record upserts the latest outcome for a document.
	Record(ctx context.Context, rec DocumentRecord) error

	// List returns all recorded documents, ordered by key.
	List(ctx context.Context) ([]DocumentRecord, error)

	// Delete removes the record for a document.
	Delete(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}
