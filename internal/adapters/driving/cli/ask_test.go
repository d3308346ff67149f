package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethica-ai/ethica-cli/internal/config"
	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driving"
)

// stubAssistant is a test double for the wired assistant.
type stubAssistant struct {
	answer    *domain.Answer
	streamed  []string
	health    domain.HealthStatus
	lastTopK  int
	lastQuery string
}

func (s *stubAssistant) Ask(_ context.Context, query string, topK int) (*domain.Answer, error) {
	s.lastQuery = query
	s.lastTopK = topK
	return s.answer, nil
}

func (s *stubAssistant) AskStream(_ context.Context, query string, topK int) (*domain.RetrievalContext, <-chan driven.StreamToken, error) {
	s.lastQuery = query
	s.lastTopK = topK

	tokens := make(chan driven.StreamToken, len(s.streamed)+1)
	for _, part := range s.streamed {
		tokens <- driven.StreamToken{Content: part}
	}
	tokens <- driven.StreamToken{Done: true}
	close(tokens)

	return &domain.RetrievalContext{Query: query, ReformulatedQuery: query}, tokens, nil
}

func (s *stubAssistant) Health(context.Context) domain.HealthStatus { return s.health }

var _ driving.Assistant = (*stubAssistant)(nil)

// withWiredAssistant installs a stub in place of the wired services and
// restores the originals when the test ends.
func withWiredAssistant(t *testing.T, stub *stubAssistant) {
	t.Helper()

	originalAssistant := assistant
	originalConfig := appConfig
	originalWired := wired

	assistant = stub
	appConfig = config.Default()
	wired = true

	t.Cleanup(func() {
		assistant = originalAssistant
		appConfig = originalConfig
		wired = originalWired
	})
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	stub := &stubAssistant{answer: &domain.Answer{
		Answer:       "Transparency means explainable decisions.",
		Query:        "What is transparency?",
		NumDocuments: 3,
	}}
	withWiredAssistant(t, stub)

	out, err := runCommand(t, "ask", "What is transparency?")

	require.NoError(t, err)
	assert.Contains(t, out, "Transparency means explainable decisions.")
	assert.Equal(t, "What is transparency?", stub.lastQuery)
	assert.Equal(t, config.Default().Retrieval.TopK, stub.lastTopK, "default top-k from config")
}

func TestAskCmd_CustomTopK(t *testing.T) {
	stub := &stubAssistant{answer: &domain.Answer{Answer: "ok"}}
	withWiredAssistant(t, stub)

	originalTopK := askTopK
	t.Cleanup(func() { askTopK = originalTopK })

	_, err := runCommand(t, "ask", "q", "--top-k", "9")

	require.NoError(t, err)
	assert.Equal(t, 9, stub.lastTopK)
}

func TestAskCmd_JSON(t *testing.T) {
	stub := &stubAssistant{answer: &domain.Answer{
		Answer: "ok",
		Query:  "q",
	}}
	withWiredAssistant(t, stub)

	originalJSON := askJSON
	t.Cleanup(func() { askJSON = originalJSON })

	out, err := runCommand(t, "ask", "q", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"answer": "ok"`)
	assert.Contains(t, out, `"query": "q"`)
}

func TestAskCmd_Stream(t *testing.T) {
	stub := &stubAssistant{streamed: []string{"Fair", "ness", "."}}
	withWiredAssistant(t, stub)

	originalStream := askStream
	t.Cleanup(func() { askStream = originalStream })

	out, err := runCommand(t, "ask", "What is fairness?", "--stream")

	require.NoError(t, err)
	assert.Contains(t, out, "Fairness.")
}

func TestHealthCmd_FailsWhenDegraded(t *testing.T) {
	stub := &stubAssistant{health: domain.HealthStatus{
		LLM:         domain.StatusUnhealthy,
		VectorStore: domain.StatusHealthy,
		Overall:     domain.StatusDegraded,
	}}
	withWiredAssistant(t, stub)

	out, err := runCommand(t, "health")

	require.Error(t, err)
	assert.Contains(t, out, "degraded")
}

func TestHealthCmd_SucceedsWhenHealthy(t *testing.T) {
	stub := &stubAssistant{health: domain.HealthStatus{
		LLM:         domain.StatusHealthy,
		VectorStore: domain.StatusHealthy,
		Overall:     domain.StatusHealthy,
	}}
	withWiredAssistant(t, stub)

	out, err := runCommand(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "healthy")
}
