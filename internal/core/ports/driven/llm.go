package driven

import "context"

// LLMService is the text-generation backend.
//
// Implementations may include:
//   - OpenAI-compatible chat completion APIs
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a complete text response for the prompt pair.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)

	// GenerateStream produces the response incrementally. The returned
	// channel yields text increments and is closed after a token with
	// Done set (or one with Err set on failure). Cancelling the context
	// abandons generation; no further increments are emitted.
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (<-chan StreamToken, error)

	// ModelName returns the name of the model in use.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures a generation call.
type GenerateOptions struct {
	// MaxTokens caps the number of tokens generated (0 = backend default).
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// StreamToken is a single increment of a streaming response.
type StreamToken struct {
	// Content is the text increment. May be empty on the terminal token.
	Content string

	// Done marks the end of the stream.
	Done bool

	// Err is set when the stream failed mid-way. The channel is closed
	// after an error token.
	Err error
}
