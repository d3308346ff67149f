package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestList_RecursiveAndFiltered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", []byte("a"))
	writeFile(t, root, "nested/b.pdf", []byte("b"))
	writeFile(t, root, "nested/notes.txt", []byte("skip"))
	writeFile(t, root, "c.PDF", []byte("c"))

	storage, err := New(Config{Root: root})
	require.NoError(t, err)

	keys, err := storage.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "c.PDF", "nested/b.pdf"}, keys)
}

func TestFetch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "nested/b.pdf", []byte("pdf bytes"))

	storage, err := New(Config{Root: root})
	require.NoError(t, err)

	data, err := storage.Fetch(context.Background(), "nested/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)

	_, err = storage.Fetch(context.Background(), "missing.pdf")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	root := t.TempDir()
	storage, err := New(Config{Root: root})
	require.NoError(t, err)
	assert.NoError(t, storage.Ping(context.Background()))

	gone, err := New(Config{Root: filepath.Join(root, "missing")})
	require.NoError(t, err)
	assert.Error(t, gone.Ping(context.Background()))
}
