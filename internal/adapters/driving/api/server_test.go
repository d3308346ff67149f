package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driving"
)

// fakeAssistant is a test double for driving.Assistant.
type fakeAssistant struct {
	answer    *domain.Answer
	askErr    error
	health    domain.HealthStatus
	streamed  []string
	lastTopK  int
	lastQuery string
}

func (f *fakeAssistant) Ask(_ context.Context, query string, topK int) (*domain.Answer, error) {
	f.lastQuery = query
	f.lastTopK = topK
	if f.askErr != nil {
		return nil, f.askErr
	}
	return f.answer, nil
}

func (f *fakeAssistant) AskStream(_ context.Context, query string, topK int) (*domain.RetrievalContext, <-chan driven.StreamToken, error) {
	f.lastQuery = query
	f.lastTopK = topK
	if f.askErr != nil {
		return nil, nil, f.askErr
	}

	tokens := make(chan driven.StreamToken, len(f.streamed)+1)
	for _, part := range f.streamed {
		tokens <- driven.StreamToken{Content: part}
	}
	tokens <- driven.StreamToken{Done: true}
	close(tokens)

	return &domain.RetrievalContext{
		Query:             query,
		ReformulatedQuery: "reformulated " + query,
		Chunks:            make([]domain.RetrievedChunk, 2),
	}, tokens, nil
}

func (f *fakeAssistant) Health(context.Context) domain.HealthStatus { return f.health }

var _ driving.Assistant = (*fakeAssistant)(nil)

// fakeIngestor is a test double for driving.Ingestor.
type fakeIngestor struct {
	report    *domain.IngestReport
	chunks    int
	ingestErr error
	lastKey   string
}

func (f *fakeIngestor) IngestDocument(_ context.Context, key string) (int, error) {
	f.lastKey = key
	return f.chunks, f.ingestErr
}

func (f *fakeIngestor) IngestAll(context.Context) (*domain.IngestReport, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.report, nil
}

func (f *fakeIngestor) RemoveDocument(context.Context, string) error { return nil }

var _ driving.Ingestor = (*fakeIngestor)(nil)

// fakeLedger is a test double for driven.IngestLedger.
type fakeLedger struct {
	records []driven.DocumentRecord
	listErr error
}

func (f *fakeLedger) Record(context.Context, driven.DocumentRecord) error { return nil }
func (f *fakeLedger) List(context.Context) ([]driven.DocumentRecord, error) {
	return f.records, f.listErr
}
func (f *fakeLedger) Delete(context.Context, string) error { return nil }
func (f *fakeLedger) Close() error                         { return nil }

func newTestServer(assistant *fakeAssistant, ingestor *fakeIngestor, ledger driven.IngestLedger) *Server {
	return New(assistant, ingestor, ledger, Config{DefaultTopK: 5})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestChat_Blocking(t *testing.T) {
	assistant := &fakeAssistant{answer: &domain.Answer{
		Answer:            "Fairness requires representative data.",
		Query:             "What is fairness?",
		ReformulatedQuery: "fairness in AI systems",
		NumDocuments:      2,
	}}
	srv := newTestServer(assistant, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/chat", `{"question":"What is fairness?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Answer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Fairness requires representative data.", got.Answer)
	assert.Equal(t, 2, got.NumDocuments)
	assert.Equal(t, 5, assistant.lastTopK, "default top_k applied")
}

func TestChat_CustomTopK(t *testing.T) {
	assistant := &fakeAssistant{answer: &domain.Answer{}}
	srv := newTestServer(assistant, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/chat", `{"question":"q","top_k":9}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9, assistant.lastTopK)
}

func TestChat_MissingQuestion(t *testing.T) {
	srv := newTestServer(&fakeAssistant{}, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_InvalidTopK(t *testing.T) {
	assistant := &fakeAssistant{askErr: fmt.Errorf("%w: top_k 99 out of range", domain.ErrInvalidInput)}
	srv := newTestServer(assistant, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/chat", `{"question":"q","top_k":99}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_Streaming(t *testing.T) {
	assistant := &fakeAssistant{streamed: []string{"Fair", "ness", "."}}
	srv := newTestServer(assistant, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/chat", `{"question":"What is fairness?","stream":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, `"type":"metadata"`)
	assert.Contains(t, body, `"reformulated_query":"reformulated What is fairness?"`)
	assert.Contains(t, body, `"num_documents":2`)
	assert.Contains(t, body, `"type":"chunk"`)
	assert.Contains(t, body, `"content":"Fair"`)
	assert.Contains(t, body, `"type":"end"`)

	// Metadata comes before any chunk, the end marker after all of them.
	assert.Less(t, strings.Index(body, "metadata"), strings.Index(body, "chunk"))
	assert.Greater(t, strings.Index(body, `"type":"end"`), strings.LastIndex(body, "chunk"))
}

func TestIngest_SingleDocument(t *testing.T) {
	ingestor := &fakeIngestor{chunks: 12}
	srv := newTestServer(&fakeAssistant{}, ingestor, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/ingest", `{"key":"documents/policy.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "documents/policy.pdf", ingestor.lastKey)
	assert.Contains(t, w.Body.String(), `"chunks":12`)
}

func TestIngest_All(t *testing.T) {
	report := &domain.IngestReport{}
	report.AddSuccess("documents/a.pdf", 3)
	report.AddFailure("documents/b.pdf", errors.New("corrupt"))
	srv := newTestServer(&fakeAssistant{}, &fakeIngestor{report: report}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/ingest", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.IngestReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Processed)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Files, 2)
}

func TestIngest_Failure(t *testing.T) {
	srv := newTestServer(&fakeAssistant{}, &fakeIngestor{ingestErr: errors.New("bucket down")}, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/ingest", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatus(t *testing.T) {
	ledger := &fakeLedger{records: []driven.DocumentRecord{
		{DocumentID: "doc1", Key: "documents/a.pdf", Chunks: 3, Status: "success"},
	}}
	srv := newTestServer(&fakeAssistant{}, &fakeIngestor{}, ledger)

	w := do(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "documents/a.pdf")
}

func TestStatus_WithoutLedger(t *testing.T) {
	srv := newTestServer(&fakeAssistant{}, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"documents":[]`)
}

func TestLiveness(t *testing.T) {
	srv := newTestServer(&fakeAssistant{}, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealth_Healthy(t *testing.T) {
	assistant := &fakeAssistant{health: domain.HealthStatus{
		LLM:         domain.StatusHealthy,
		VectorStore: domain.StatusHealthy,
		Overall:     domain.StatusHealthy,
	}}
	srv := newTestServer(assistant, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodGet, "/api/v1/rag/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"overall":"healthy"`)
}

func TestHealth_Degraded(t *testing.T) {
	assistant := &fakeAssistant{health: domain.HealthStatus{
		LLM:         domain.StatusUnhealthy,
		VectorStore: domain.StatusHealthy,
		Overall:     domain.StatusDegraded,
	}}
	srv := newTestServer(assistant, &fakeIngestor{}, nil)

	w := do(t, srv, http.MethodGet, "/api/v1/rag/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
