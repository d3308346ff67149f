// Package filesystem provides a document storage adapter reading PDFs
// from a local directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Ensure Storage implements the interface.
var _ driven.DocumentStorage = (*Storage)(nil)

// DefaultExtension filters listings to PDF documents.
const DefaultExtension = ".pdf"

// Config holds configuration for the filesystem document storage.
type Config struct {
	// Root is the directory to read documents from (required).
	Root string

	// Extension filters listed files (default: .pdf).
	Extension string
}

// Storage lists and reads documents under one root directory. Keys are
// slash-separated paths relative to the root.
type Storage struct {
	root      string
	extension string
}

// New creates a filesystem storage rooted at cfg.Root.
func New(cfg Config) (*Storage, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("filesystem: root directory is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	return &Storage{root: cfg.Root, extension: cfg.Extension}, nil
}

// List walks the root and returns matching document keys in sorted
// order.
func (s *Storage) List(_ context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), s.extension) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filesystem: walk %s: %w", s.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Fetch reads one document's raw bytes.
func (s *Storage) Fetch(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("filesystem: read %s: %w", key, err)
	}
	return data, nil
}

// Ping validates the root directory exists and is a directory.
func (s *Storage) Ping(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("filesystem: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filesystem: %s is not a directory", s.root)
	}
	return nil
}
