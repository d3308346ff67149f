package domain

// NoRelevantDocuments is the context rendered when retrieval returns no
// chunks. Downstream prompt assembly always receives non-empty context.
const NoRelevantDocuments = "No relevant documents found."

// FallbackAnswer is the user-safe answer returned when the answer
// pipeline fails unexpectedly. The underlying cause is logged, never
// surfaced to the caller.
const FallbackAnswer = "I encountered an error processing your question. " +
	"Please try rephrasing or ask a different question."

// RetrievalContext is the retrieval half of one question: the query as
// asked, its reformulation, the retrieved chunks and their formatted
// rendering. It is built fresh for every question and never cached, so
// answers always reflect the current index state.
type RetrievalContext struct {
	// Query is the user's question as asked.
	Query string

	// ReformulatedQuery is the retrieval-optimised rewrite, or Query
	// itself when reformulation was unavailable.
	ReformulatedQuery string

	// Chunks are the retrieved chunks, ordered by descending score.
	Chunks []RetrievedChunk

	// Context is the formatted, attributed rendering of Chunks.
	Context string
}

// NumDocuments returns the number of retrieved chunks.
func (c *RetrievalContext) NumDocuments() int {
	return len(c.Chunks)
}

// Answer is the complete (non-streaming) result of one question.
type Answer struct {
	Answer            string `json:"answer"`
	Query             string `json:"query"`
	ReformulatedQuery string `json:"reformulated_query"`
	NumDocuments      int    `json:"num_documents"`
}
