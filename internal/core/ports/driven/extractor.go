package driven

import "context"

// TextExtractor turns a raw binary document into plain text.
// Corrupt or unsupported input fails with an error wrapping
// domain.ErrExtraction.
type TextExtractor interface {
	// Extract returns the plain text content of the document. The name
	// is used for error reporting only.
	Extract(ctx context.Context, data []byte, name string) (string, error)
}
