package pdftotext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name  string
	args  []string
	stdin []byte
}

func (m *mockRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	m.stdin = stdin
	return m.output, m.err
}

func TestExtract(t *testing.T) {
	runner := &mockRunner{output: []byte("  Extracted text.\n\n")}
	extractor := New(WithRunner(runner))

	text, err := extractor.Extract(context.Background(), []byte("%PDF-1.4 ..."), "policy.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Extracted text.", text, "output whitespace is trimmed")

	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, []string{"-layout", "-q", "-", "-"}, runner.args)
	assert.Equal(t, []byte("%PDF-1.4 ..."), runner.stdin, "document bytes go to stdin")
}

func TestExtract_EmptyDocument(t *testing.T) {
	extractor := New(WithRunner(&mockRunner{}))

	_, err := extractor.Extract(context.Background(), nil, "empty.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty.pdf")
}

func TestExtract_CommandFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext: not a PDF")}
	extractor := New(WithRunner(runner))

	_, err := extractor.Extract(context.Background(), []byte("garbage"), "bad.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.pdf")
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}
