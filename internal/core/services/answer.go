package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driving"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Assistant = (*AnswerService)(nil)

// Top-k bounds for retrieval. Values outside the range are rejected
// before any work begins.
const (
	MinTopK     = 1
	MaxTopK     = 20
	DefaultTopK = 5
)

// Generation parameters. Reformulation runs short and cold; answers get
// the full budget.
const (
	answerMaxTokens      = 1000
	answerTemperature    = 0.7
	reformulateMaxTokens = 100
	reformulateTemp      = 0.3

	probeTimeout = 10 * time.Second
)

// AnswerService combines reformulation, retrieval, context assembly and
// generation into one request/response or streaming flow.
type AnswerService struct {
	llm      driven.LLMService
	embedder driven.EmbeddingService
	vector   driven.VectorStore
	prompts  driven.PromptStore
}

// NewAnswerService creates an answer service. All dependencies are
// required.
func NewAnswerService(
	llm driven.LLMService,
	embedder driven.EmbeddingService,
	vector driven.VectorStore,
	prompts driven.PromptStore,
) *AnswerService {
	return &AnswerService{
		llm:      llm,
		embedder: embedder,
		vector:   vector,
		prompts:  prompts,
	}
}

// Reformulate rewrites a user query into a retrieval-optimised form.
// On any backend failure, or a blank result, it falls back to the
// original query with a warning: reformulation must never block the
// retrieval pipeline.
func (s *AnswerService) Reformulate(ctx context.Context, query string) string {
	template, err := s.prompts.Load(driven.PromptReformulate)
	if err != nil {
		logger.Warn("Reformulation prompt unavailable: %v. Using original query.", err)
		return query
	}

	reformulated, err := s.llm.Generate(ctx, "", fmt.Sprintf(template, query), driven.GenerateOptions{
		MaxTokens:   reformulateMaxTokens,
		Temperature: reformulateTemp,
	})
	if err != nil {
		logger.Warn("Query reformulation failed: %v. Using original query.", err)
		return query
	}

	reformulated = strings.TrimSpace(reformulated)
	if reformulated == "" {
		logger.Warn("Query reformulation returned empty result, using original query")
		return query
	}

	logger.Debug("Query reformulated: %q -> %q", query, reformulated)
	return reformulated
}

// Retrieve embeds the query text and fetches the topK nearest chunks,
// ordered by descending similarity.
func (s *AnswerService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if topK < MinTopK || topK > MaxTopK {
		return nil, fmt.Errorf("%w: top_k %d out of range [%d, %d]", domain.ErrInvalidInput, topK, MinTopK, MaxTopK)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbedding, err)
	}

	chunks, err := s.vector.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrVectorIndex, err)
	}

	logger.Debug("Retrieved %d chunks", len(chunks))
	return chunks, nil
}

// Context builds the full retrieval context for a query: reformulate,
// retrieve, format. It is built fresh per query and never cached, so
// answers always reflect the current index state.
func (s *AnswerService) Context(ctx context.Context, query string, topK int) (*domain.RetrievalContext, error) {
	reformulated := s.Reformulate(ctx, query)

	chunks, err := s.Retrieve(ctx, reformulated, topK)
	if err != nil {
		return nil, err
	}

	return &domain.RetrievalContext{
		Query:             query,
		ReformulatedQuery: reformulated,
		Chunks:            chunks,
		Context:           FormatContext(chunks),
	}, nil
}

// FormatContext renders retrieved chunks into the attributed context
// block fed to the generation backend. Each chunk becomes one labelled
// block naming its source file and ordinal position; an empty result
// set renders a fixed sentinel so prompt assembly always has non-empty
// context.
func FormatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return domain.NoRelevantDocuments
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		filename := chunk.Payload.Filename
		if filename == "" {
			filename = "Unknown"
		}
		parts[i] = fmt.Sprintf("Document %d (from %s):\n%s\n", i+1, filename, chunk.Payload.Text)
	}
	return strings.Join(parts, "\n---\n")
}

// Ask answers a question in one blocking call. Invalid input is the
// only error the caller sees; any failure deeper in the pipeline is
// logged and converted to the fixed fallback answer.
func (s *AnswerService) Ask(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	logger.Section("Ask")

	rc, err := s.Context(ctx, query, topK)
	if err != nil {
		if isInvalidInput(err) {
			return nil, err
		}
		logger.Error("Answer pipeline failed for %q: %v", query, err)
		return s.fallback(query), nil
	}

	system, user, err := s.buildPrompts(rc)
	if err != nil {
		logger.Error("Prompt assembly failed for %q: %v", query, err)
		return s.fallback(query), nil
	}

	answer, err := s.llm.Generate(ctx, system, user, driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		logger.Error("Generation failed for %q: %v", query, err)
		return s.fallback(query), nil
	}

	return &domain.Answer{
		Answer:            strings.TrimSpace(answer),
		Query:             query,
		ReformulatedQuery: rc.ReformulatedQuery,
		NumDocuments:      rc.NumDocuments(),
	}, nil
}

// AskStream answers a question incrementally. The retrieval pass runs
// exactly once up front; the returned context carries the metadata the
// transport emits before the first increment. The channel is closed
// after a Done token, or earlier if the caller cancels ctx.
func (s *AnswerService) AskStream(
	ctx context.Context, query string, topK int,
) (*domain.RetrievalContext, <-chan driven.StreamToken, error) {
	logger.Section("Ask (streaming)")

	rc, err := s.Context(ctx, query, topK)
	if err != nil {
		if isInvalidInput(err) {
			return nil, nil, err
		}
		logger.Error("Answer pipeline failed for %q: %v", query, err)
		return s.fallbackStream(query)
	}

	system, user, err := s.buildPrompts(rc)
	if err != nil {
		logger.Error("Prompt assembly failed for %q: %v", query, err)
		return s.fallbackStream(query)
	}

	tokens, err := s.llm.GenerateStream(ctx, system, user, driven.GenerateOptions{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		logger.Error("Streaming generation failed for %q: %v", query, err)
		return s.fallbackStream(query)
	}

	return rc, tokens, nil
}

// Health independently probes the generation backend and the vector
// index and aggregates the result. A probe that fails (or panics) is
// unhealthy, never propagated.
func (s *AnswerService) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		LLM:         domain.StatusUnknown,
		VectorStore: domain.StatusUnknown,
	}

	status.LLM = probe(ctx, "llm", s.llm.Ping)
	status.VectorStore = probe(ctx, "vector store", s.vector.Ping)
	status.Overall = domain.Aggregate(status.LLM, status.VectorStore)
	return status
}

// probe runs a single dependency check with a bounded timeout,
// reducing any failure mode to unhealthy.
func probe(ctx context.Context, name string, ping func(context.Context) error) (status domain.ComponentStatus) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Health probe for %s panicked: %v", name, r)
			status = domain.StatusUnhealthy
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		logger.Warn("Health probe for %s failed: %v", name, err)
		return domain.StatusUnhealthy
	}
	return domain.StatusHealthy
}

// buildPrompts fills the answer templates with the retrieval context.
func (s *AnswerService) buildPrompts(rc *domain.RetrievalContext) (system, user string, err error) {
	system, err = s.prompts.Load(driven.PromptSystem)
	if err != nil {
		return "", "", fmt.Errorf("load system prompt: %w", err)
	}
	template, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", "", fmt.Errorf("load answer prompt: %w", err)
	}
	return system, fmt.Sprintf(template, rc.Context, rc.Query), nil
}

// fallback is the degraded-but-valid answer for unexpected failures.
func (s *AnswerService) fallback(query string) *domain.Answer {
	return &domain.Answer{
		Answer:            domain.FallbackAnswer,
		Query:             query,
		ReformulatedQuery: query,
		NumDocuments:      0,
	}
}

// fallbackStream wraps the fallback answer as a single-increment stream
// so streaming callers also always receive something.
func (s *AnswerService) fallbackStream(query string) (*domain.RetrievalContext, <-chan driven.StreamToken, error) {
	tokens := make(chan driven.StreamToken, 2)
	tokens <- driven.StreamToken{Content: domain.FallbackAnswer}
	tokens <- driven.StreamToken{Done: true}
	close(tokens)

	return &domain.RetrievalContext{
		Query:             query,
		ReformulatedQuery: query,
		Context:           domain.NoRelevantDocuments,
	}, tokens, nil
}

func isInvalidInput(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
