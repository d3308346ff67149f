package domain

// FileStatus is the per-document outcome of an ingestion run.
type FileStatus string

const (
	// FileStatusSuccess means the document was chunked, embedded and
	// stored (possibly with zero chunks for an empty document).
	FileStatusSuccess FileStatus = "success"

	// FileStatusFailed means an unrecoverable step failed for this
	// document. The rest of the batch is unaffected.
	FileStatusFailed FileStatus = "failed"
)

// FileResult records the outcome of ingesting a single document.
type FileResult struct {
	// Key is the document's logical storage key.
	Key string `json:"file"`

	// Status is success or failed.
	Status FileStatus `json:"status"`

	// Chunks is the number of chunks stored (success only).
	Chunks int `json:"chunks,omitempty"`

	// Error is the failure detail (failed only).
	Error string `json:"error,omitempty"`
}

// IngestReport aggregates a batch ingestion run. A single document's
// failure never aborts the batch; it is recorded here instead.
type IngestReport struct {
	// Processed is the number of documents ingested successfully.
	Processed int `json:"processed"`

	// Failed is the number of documents that failed.
	Failed int `json:"failed"`

	// Files lists the per-document outcomes in processing order.
	Files []FileResult `json:"files"`
}

// AddSuccess records a successful document.
func (r *IngestReport) AddSuccess(key string, chunks int) {
	r.Processed++
	r.Files = append(r.Files, FileResult{Key: key, Status: FileStatusSuccess, Chunks: chunks})
}

// AddFailure records a failed document.
func (r *IngestReport) AddFailure(key string, err error) {
	r.Failed++
	r.Files = append(r.Files, FileResult{Key: key, Status: FileStatusFailed, Error: err.Error()})
}
