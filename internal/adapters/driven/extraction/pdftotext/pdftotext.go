// Package pdftotext provides a text extractor shelling out to the
// poppler pdftotext utility.
package pdftotext

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// CommandRunner executes an external command with stdin and returns
// its stdout. It exists so tests can stub the pdftotext binary.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// execRunner runs commands through os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %s: %w", name, msg, err)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Extractor converts PDF bytes to plain text via pdftotext, reading
// the document from stdin and writing text to stdout.
type Extractor struct {
	runner CommandRunner
}

// Option customises the extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner. Used in tests.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) { e.runner = r }
}

// New creates a pdftotext extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs pdftotext over the raw document bytes and returns the
// extracted text with surrounding whitespace trimmed.
func (e *Extractor) Extract(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("extract %s: empty document", name)
	}

	out, err := e.runner.Run(ctx, data, "pdftotext", "-layout", "-q", "-", "-")
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// InstallInstructions describes how to install the pdftotext binary.
func InstallInstructions() string {
	return `pdftotext is required for PDF extraction.

  macOS:  brew install poppler
  Debian: apt install poppler-utils`
}
