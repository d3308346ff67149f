package domain

import "errors"

// Domain errors form the failure taxonomy of the pipelines. Call sites
// wrap these with %w and attach the failing document or query, so that
// callers can make continue/abort decisions with errors.Is.
var (
	// ErrConfiguration indicates the system is unusable at startup
	// (missing key, bad dimension, unknown provider). Fatal at boot.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrConnectivity indicates a collaborator is unreachable. Fatal at
	// startup probes; degrades the specific operation otherwise.
	ErrConnectivity = errors.New("collaborator unreachable")

	// ErrExtraction indicates text extraction failed for a document.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding indicates the embedding backend failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrVectorIndex indicates a vector index operation failed.
	ErrVectorIndex = errors.New("vector index operation failed")

	// ErrGeneration indicates the generation backend failed.
	ErrGeneration = errors.New("generation failed")

	// ErrInvalidInput indicates caller input out of contract, e.g. a
	// top-k outside the allowed range. Rejected before any work begins.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
