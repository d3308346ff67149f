package driving

import (
	"context"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Assistant drives the retrieval-and-answer pipeline.
type Assistant interface {
	// Ask answers a question in one blocking call. Failures inside the
	// pipeline degrade to a user-safe fallback answer, never an error
	// for the caller to unwrap; only invalid input is returned as an
	// error.
	Ask(ctx context.Context, query string, topK int) (*domain.Answer, error)

	// AskStream answers a question incrementally. The retrieval pass
	// runs exactly once up front and is returned as metadata; the
	// channel then yields answer increments until a Done token. The
	// caller cancels by cancelling ctx.
	AskStream(ctx context.Context, query string, topK int) (*domain.RetrievalContext, <-chan driven.StreamToken, error)

	// Health probes the generation backend and the vector index and
	// aggregates the result. Probe failures are captured per
	// dependency, never returned as an error.
	Health(ctx context.Context) domain.HealthStatus
}
