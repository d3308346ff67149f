package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(documentID, key string) driven.DocumentRecord {
	return driven.DocumentRecord{
		DocumentID: documentID,
		Key:        key,
		Filename:   filepath.Base(key),
		Chunks:     3,
		Status:     "success",
		IngestedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := record("doc1", "documents/policy.pdf")
	require.NoError(t, store.Record(ctx, rec))

	got, err := store.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, rec.Key, got.Key)
	assert.Equal(t, "policy.pdf", got.Filename)
	assert.Equal(t, 3, got.Chunks)
	assert.Equal(t, "success", got.Status)
	assert.Empty(t, got.Error)
	assert.True(t, rec.IngestedAt.Equal(got.IngestedAt))
}

func TestRecord_UpsertsByDocumentID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, record("doc1", "documents/policy.pdf")))

	updated := record("doc1", "documents/policy.pdf")
	updated.Chunks = 7
	updated.Status = "failed"
	updated.Error = "extraction failed"
	require.NoError(t, store.Record(ctx, updated))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "re-ingestion overwrites the existing entry")
	assert.Equal(t, 7, records[0].Chunks)
	assert.Equal(t, "failed", records[0].Status)
	assert.Equal(t, "extraction failed", records[0].Error)
}

func TestList_OrderedByKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, record("doc-b", "documents/b.pdf")))
	require.NoError(t, store.Record(ctx, record("doc-a", "documents/a.pdf")))
	require.NoError(t, store.Record(ctx, record("doc-c", "documents/c.pdf")))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "documents/a.pdf", records[0].Key)
	assert.Equal(t, "documents/b.pdf", records[1].Key)
	assert.Equal(t, "documents/c.pdf", records[2].Key)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, record("doc1", "documents/a.pdf")))
	require.NoError(t, store.Delete(ctx, "doc1"))

	_, err := store.Get(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an absent entry is not an error.
	assert.NoError(t, store.Delete(ctx, "doc1"))
}

func TestReopen_PersistsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, record("doc1", "documents/a.pdf")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
