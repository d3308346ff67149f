package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/ethica-ai/ethica-cli/internal/chunker"
	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driving"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.Ingestor = (*IngestionService)(nil)

// IngestionService drives per-document ingestion: dedup-delete, fetch,
// extract, chunk, embed, upsert. Chunk IDs are deterministic, so
// re-ingesting a document overwrites its previous chunks instead of
// duplicating them.
type IngestionService struct {
	storage   driven.DocumentStorage
	extractor driven.TextExtractor
	embedder  driven.EmbeddingService
	vector    driven.VectorStore
	ledger    driven.IngestLedger
	chunker   *chunker.Chunker

	// storagePrefix is stripped from logical keys before deriving
	// document IDs, so bucket reorganisation keeps identities stable.
	storagePrefix string

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewIngestionService creates an ingestion service. The ledger is
// optional (can be nil); everything else is required.
func NewIngestionService(
	storage driven.DocumentStorage,
	extractor driven.TextExtractor,
	embedder driven.EmbeddingService,
	vector driven.VectorStore,
	ledger driven.IngestLedger,
	ch *chunker.Chunker,
	storagePrefix string,
) *IngestionService {
	return &IngestionService{
		storage:       storage,
		extractor:     extractor,
		embedder:      embedder,
		vector:        vector,
		ledger:        ledger,
		chunker:       ch,
		storagePrefix: storagePrefix,
		now:           time.Now,
	}
}

// IngestDocument ingests one document and returns the number of chunks
// stored. Zero chunks from an empty or unparseable-but-extractable
// document is a valid outcome, not an error.
//
// Steps run strictly in order: delete existing chunks, fetch, extract,
// chunk, embed, upsert. A failing dedup-delete is logged and does not
// abort: overwriting content with fresh chunks matters more than a
// transient delete failure, at the cost of temporary duplication.
func (s *IngestionService) IngestDocument(ctx context.Context, key string) (int, error) {
	logger.Section("Ingest " + key)

	documentID := domain.NewDocumentID(key, s.storagePrefix)
	logger.Debug("Document ID: %s", documentID)

	if deleted, err := s.vector.DeleteByDocument(ctx, documentID); err != nil {
		logger.Warn("Dedup delete for %s failed: %v", documentID, err)
	} else if deleted > 0 {
		logger.Debug("Deleted %d existing chunks for %s", deleted, documentID)
	}

	raw, err := s.storage.Fetch(ctx, key)
	if err != nil {
		return 0, s.fail(ctx, key, documentID, fmt.Errorf("%w: fetch %s: %w", domain.ErrConnectivity, key, err))
	}

	text, err := s.extractor.Extract(ctx, raw, key)
	if err != nil {
		return 0, s.fail(ctx, key, documentID, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, key, err))
	}

	meta := domain.DocumentMetadata{
		Filename:    path.Base(key),
		DocumentID:  documentID,
		FileSize:    int64(len(raw)),
		ProcessedAt: s.now().UTC(),
	}

	chunks := s.chunker.Chunk(text, meta)
	if len(chunks) == 0 {
		logger.Warn("No chunks produced for %s", key)
		s.record(ctx, key, documentID, 0, nil)
		return 0, nil
	}
	logger.Debug("Split into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, s.fail(ctx, key, documentID, fmt.Errorf("%w: %s: %w", domain.ErrEmbedding, key, err))
	}
	if len(embeddings) != len(chunks) {
		return 0, s.fail(ctx, key, documentID,
			fmt.Errorf("%w: %s: got %d embeddings for %d chunks", domain.ErrEmbedding, key, len(embeddings), len(chunks)))
	}

	storedAt := s.now().UTC()
	points := make([]driven.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = driven.Point{
			ID:     domain.ChunkID(documentID, chunk.Index),
			Vector: embeddings[i],
			Payload: domain.ChunkPayload{
				Text:        chunk.Text,
				Filename:    chunk.Metadata.Filename,
				DocumentID:  chunk.Metadata.DocumentID,
				ChunkIndex:  chunk.Index,
				FileSize:    chunk.Metadata.FileSize,
				ProcessedAt: chunk.Metadata.ProcessedAt,
				StoredAt:    storedAt,
			},
		}
	}

	if err := s.vector.Upsert(ctx, points); err != nil {
		return 0, s.fail(ctx, key, documentID, fmt.Errorf("%w: %s: %w", domain.ErrVectorIndex, key, err))
	}

	logger.Info("Ingested %s: %d chunks", key, len(chunks))
	s.record(ctx, key, documentID, len(chunks), nil)
	return len(chunks), nil
}

// IngestAll ingests every eligible document in storage. Documents are
// processed sequentially in listing order so the report is
// deterministic; one document's failure is recorded and does not stop
// the rest.
func (s *IngestionService) IngestAll(ctx context.Context) (*domain.IngestReport, error) {
	keys, err := s.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", domain.ErrConnectivity, err)
	}

	report := &domain.IngestReport{Files: []domain.FileResult{}}
	if len(keys) == 0 {
		logger.Info("No documents found in storage")
		return report, nil
	}

	logger.Info("Found %d documents to ingest", len(keys))

	for _, key := range keys {
		if ctx.Err() != nil {
			// Stop launching new per-document work on cancellation.
			return report, ctx.Err()
		}

		chunks, err := s.IngestDocument(ctx, key)
		if err != nil {
			logger.Warn("Failed to ingest %s: %v", key, err)
			report.AddFailure(key, err)
			continue
		}
		report.AddSuccess(key, chunks)
	}

	logger.Info("Ingestion complete: %d succeeded, %d failed", report.Processed, report.Failed)
	return report, nil
}

// RemoveDocument deletes a document's chunks from the index and drops
// its ledger record.
func (s *IngestionService) RemoveDocument(ctx context.Context, key string) error {
	documentID := domain.NewDocumentID(key, s.storagePrefix)

	if _, err := s.vector.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("%w: delete %s: %w", domain.ErrVectorIndex, key, err)
	}
	if s.ledger != nil {
		if err := s.ledger.Delete(ctx, documentID); err != nil {
			logger.Warn("Ledger delete for %s failed: %v", documentID, err)
		}
	}
	return nil
}

// fail records a failed document in the ledger and passes the error
// through unchanged.
func (s *IngestionService) fail(ctx context.Context, key, documentID string, err error) error {
	s.record(ctx, key, documentID, 0, err)
	return err
}

// record writes a ledger entry; ledger failures are logged, never
// propagated, because the index is already in its final state.
func (s *IngestionService) record(ctx context.Context, key, documentID string, chunks int, ingestErr error) {
	if s.ledger == nil {
		return
	}

	rec := driven.DocumentRecord{
		DocumentID: documentID,
		Key:        key,
		Filename:   path.Base(key),
		Chunks:     chunks,
		Status:     string(domain.FileStatusSuccess),
		IngestedAt: s.now().UTC(),
	}
	if ingestErr != nil {
		rec.Status = string(domain.FileStatusFailed)
		rec.Error = ingestErr.Error()
	}

	if err := s.ledger.Record(ctx, rec); err != nil {
		logger.Warn("Ledger record for %s failed: %v", documentID, err)
	}
}
