package domain

import "time"

// DocumentMetadata describes the source document a chunk was cut from.
// It is computed once per ingestion and copied onto every chunk.
type DocumentMetadata struct {
	// Filename is the base name of the source document (no storage prefix).
	Filename string

	// DocumentID is the deterministic identifier derived from the
	// document's logical key. See NewDocumentID.
	DocumentID string

	// FileSize is the size of the raw document in bytes.
	FileSize int64

	// ProcessedAt is when this ingestion run processed the document.
	ProcessedAt time.Time
}

// Chunk is a bounded segment of a document's extracted text.
// Chunks are produced only by the chunker and are immutable once created.
type Chunk struct {
	// Index is the 0-based position of the chunk within its document.
	// Indices are contiguous: a document with n chunks has indices 0..n-1.
	Index int

	// Text is the chunk's text payload, including any overlap carried
	// over from the previous chunk.
	Text string

	// Metadata is the document-level metadata shared by all chunks of
	// the same ingestion run.
	Metadata DocumentMetadata
}

// ChunkPayload is the payload stored alongside a vector in the index.
// It carries everything needed to attribute a retrieved chunk back to
// its source document.
type ChunkPayload struct {
	Text        string    `json:"text"`
	Filename    string    `json:"filename"`
	DocumentID  string    `json:"document_id"`
	ChunkIndex  int       `json:"chunk_index"`
	FileSize    int64     `json:"file_size"`
	ProcessedAt time.Time `json:"processed_at"`
	StoredAt    time.Time `json:"stored_at"`
}

// RetrievedChunk is a chunk returned by a similarity search, together
// with its score. Results are ordered by descending similarity.
type RetrievedChunk struct {
	// ID is the point ID in the vector index (the ChunkID).
	ID string

	// Score is the cosine similarity to the query vector.
	Score float64

	// Payload is the stored chunk payload.
	Payload ChunkPayload
}
