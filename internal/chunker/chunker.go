// Package chunker splits extracted document text into overlapping,
// bounded-size chunks, preserving natural boundaries where possible.
package chunker

import (
	"strings"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
)

// DefaultChunkSize is the default maximum characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of trailing characters repeated
// from the previous chunk.
const DefaultOverlap = 200

// separators are tried coarsest first: paragraph break, line break,
// sentence terminator, space. A segment that still exceeds the maximum
// size after the finest separator is a single unsplittable token and is
// emitted as its own oversized chunk.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into chunks. It is a pure function of its inputs
// and configuration: the same text and parameters always produce the
// same chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for new content in every chunk.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits text into chunks carrying the given document metadata.
// Empty or whitespace-only input produces no chunks; that is not an
// error. Sequence indices are contiguous from 0.
func (c *Chunker) Chunk(text string, meta domain.DocumentMetadata) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := c.split(text, separators)

	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Index:    len(chunks),
			Text:     piece,
			Metadata: meta,
		})
	}
	return chunks
}

// split recursively cuts text at the coarsest separator present, then
// merges the resulting segments back up to the size limit with overlap.
// Segments still over the limit fall through to the next separator.
func (c *Chunker) split(text string, seps []string) []string {
	if len(seps) == 0 {
		// Unsplittable token: emit as-is, even oversized.
		return []string{text}
	}

	sep := seps[0]
	rest := seps[1:]
	if !strings.Contains(text, sep) {
		return c.split(text, rest)
	}

	splits := splitAfter(text, sep)

	var result []string
	var pending []string
	for _, s := range splits {
		if len(s) <= c.chunkSize {
			pending = append(pending, s)
			continue
		}
		// Flush what fits, then descend into the oversized segment.
		if len(pending) > 0 {
			result = append(result, c.merge(pending)...)
			pending = nil
		}
		result = append(result, c.split(s, rest)...)
	}
	if len(pending) > 0 {
		result = append(result, c.merge(pending)...)
	}
	return result
}

// merge greedily packs segments into chunks of at most chunkSize,
// carrying the trailing window of the previous chunk forward as overlap.
// Separators stay attached to the segment that precedes them, so joins
// need no glue.
func (c *Chunker) merge(splits []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, s := range splits {
		if total+len(s) > c.chunkSize && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, ""))

			// Shrink the window to the overlap budget, always leaving
			// room for the incoming segment.
			for total > c.overlap || (total+len(s) > c.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, s)
		total += len(s)
	}

	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}

// splitAfter splits text at sep, keeping sep attached to the preceding
// piece and dropping the empty tail SplitAfter produces when the text
// ends with sep.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}
