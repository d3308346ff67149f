package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentID_Deterministic(t *testing.T) {
	first := NewDocumentID("docs/policy.pdf", "")
	second := NewDocumentID("docs/policy.pdf", "")
	assert.Equal(t, first, second)
}

func TestNewDocumentID_Length(t *testing.T) {
	id := NewDocumentID("docs/policy.pdf", "")
	assert.Len(t, id, 16)
}

func TestNewDocumentID_StripsPrefix(t *testing.T) {
	withPrefix := NewDocumentID("documents/policy.pdf", "documents/")
	bare := NewDocumentID("policy.pdf", "")
	assert.Equal(t, bare, withPrefix,
		"moving the storage prefix must not change the identifier")
}

func TestNewDocumentID_RenameChangesID(t *testing.T) {
	a := NewDocumentID("documents/policy.pdf", "documents/")
	b := NewDocumentID("documents/policy-v2.pdf", "documents/")
	assert.NotEqual(t, a, b)
}

func TestChunkID_Stable(t *testing.T) {
	first := ChunkID("abcdef0123456789", 3)
	second := ChunkID("abcdef0123456789", 3)
	assert.Equal(t, first, second)
}

func TestChunkID_IsUUID(t *testing.T) {
	id := ChunkID("abcdef0123456789", 0)
	require.Len(t, id, 36)
	assert.Equal(t, byte('5'), id[14], "chunk IDs are UUIDv5")
}

func TestChunkID_VariesWithIndex(t *testing.T) {
	assert.NotEqual(t, ChunkID("abcdef0123456789", 0), ChunkID("abcdef0123456789", 1))
}

func TestChunkID_VariesWithDocument(t *testing.T) {
	assert.NotEqual(t, ChunkID("aaaa", 0), ChunkID("bbbb", 0))
}
