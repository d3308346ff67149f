package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// fakeStorage is a test double for driven.DocumentStorage.
type fakeStorage struct {
	docs    map[string][]byte
	order   []string
	listErr error
	fetches []string
}

func newFakeStorage(docs map[string][]byte, order ...string) *fakeStorage {
	return &fakeStorage{docs: docs, order: order}
}

func (f *fakeStorage) List(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.order, nil
}

func (f *fakeStorage) Fetch(_ context.Context, key string) ([]byte, error) {
	f.fetches = append(f.fetches, key)
	data, ok := f.docs[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return data, nil
}

func (f *fakeStorage) Ping(context.Context) error { return nil }

// fakeExtractor is a test double for driven.TextExtractor. By default
// it passes raw bytes through as text; failKeys fail with extractErr.
type fakeExtractor struct {
	failKeys   map[string]error
	extraction func([]byte) string
}

func (f *fakeExtractor) Extract(_ context.Context, data []byte, name string) (string, error) {
	if err, ok := f.failKeys[name]; ok {
		return "", err
	}
	if f.extraction != nil {
		return f.extraction(data), nil
	}
	return string(data), nil
}

// fakeEmbedder is a test double for driven.EmbeddingService producing
// deterministic 4-dimensional vectors.
type fakeEmbedder struct {
	batchErr   error
	embedErr   error
	pingErr    error
	batchCalls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.batchCalls = append(f.batchCalls, texts)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = vectorFor(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return 4 }
func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }
func (f *fakeEmbedder) Ping(context.Context) error { return f.pingErr }
func (f *fakeEmbedder) Close() error { return nil }

// vectorFor maps text to a stable vector so order checks are possible.
func vectorFor(text string) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1, 0}
}

// fakeVector is an in-memory test double for driven.VectorStore that
// records calls.
type fakeVector struct {
	mu        sync.Mutex
	points    map[string]driven.Point
	deleteErr error
	upsertErr error
	searchErr error
	pingErr   error
	deletes   []string
	results   []domain.RetrievedChunk
}

func newFakeVector() *fakeVector {
	return &fakeVector{points: make(map[string]driven.Point)}
}

func (f *fakeVector) EnsureCollection(context.Context, int) error { return nil }

func (f *fakeVector) Upsert(_ context.Context, points []driven.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range points {
		f.points[p.ID] = p
	}
	return nil
}

func (f *fakeVector) Search(_ context.Context, _ []float32, limit int) ([]domain.RetrievedChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeVector) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	f.deletes = append(f.deletes, documentID)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for id, p := range f.points {
		if p.Payload.DocumentID == documentID {
			delete(f.points, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeVector) Ping(context.Context) error { return f.pingErr }
func (f *fakeVector) Close() error { return nil }

func (f *fakeVector) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.points))
	for id := range f.points {
		ids = append(ids, id)
	}
	return ids
}

// fakeLLM is a test double for driven.LLMService. Responses are served
// in FIFO order; an empty queue echoes the user prompt.
type fakeLLM struct {
	responses   []string
	generateErr error
	streamErr   error
	pingErr     error
	calls       []string
}

func (f *fakeLLM) Generate(_ context.Context, _, userPrompt string, _ driven.GenerateOptions) (string, error) {
	f.calls = append(f.calls, userPrompt)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	if len(f.responses) == 0 {
		return userPrompt, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeLLM) GenerateStream(
	ctx context.Context, system, userPrompt string, opts driven.GenerateOptions,
) (<-chan driven.StreamToken, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	full, err := f.Generate(ctx, system, userPrompt, opts)
	if err != nil {
		return nil, err
	}

	// Stream the complete answer two characters at a time so the test
	// sees multiple increments.
	tokens := make(chan driven.StreamToken)
	go func() {
		defer close(tokens)
		for i := 0; i < len(full); i += 2 {
			end := i + 2
			if end > len(full) {
				end = len(full)
			}
			tokens <- driven.StreamToken{Content: full[i:end]}
		}
		tokens <- driven.StreamToken{Done: true}
	}()
	return tokens, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return f.pingErr }
func (f *fakeLLM) Close() error { return nil }

// fakePrompts is a test double for driven.PromptStore.
type fakePrompts struct {
	overrides map[string]string
	loadErr   error
}

func (f *fakePrompts) Load(name string) (string, error) {
	if f.loadErr != nil {
		return "", f.loadErr
	}
	if p, ok := f.overrides[name]; ok {
		return p, nil
	}
	switch name {
	case driven.PromptSystem:
		return "You are a test assistant.", nil
	case driven.PromptReformulate:
		return "Reformulate: %s", nil
	case driven.PromptAnswer:
		return "Context:\n%s\n\nQuestion: %s", nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (f *fakePrompts) Reload() {}

// fakeLedger records ledger calls for assertions.
type fakeLedger struct {
	records []driven.DocumentRecord
	err     error
}

func (f *fakeLedger) Record(_ context.Context, rec driven.DocumentRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) List(context.Context) ([]driven.DocumentRecord, error) {
	return f.records, nil
}

func (f *fakeLedger) Delete(context.Context, string) error { return f.err }
func (f *fakeLedger) Close() error { return nil }
