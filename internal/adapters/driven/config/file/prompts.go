package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk,
// falling back to embedded defaults when a file is missing.
//
// The store uses lazy initialisation - files are only created when
// first accessed, not in the constructor. This makes testing easier
// and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts. These are used
// when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are an AI Ethics Assistant, a knowledgeable expert on AI policy, ethics, governance, and regulation.
Your role is to provide accurate, helpful, and well-informed responses about AI ethics topics based on the provided context from authoritative documents.

Inputs:
- User reformulated query: Enhanced version of the user's question optimized for document retrieval
- Context from AI Ethics Documents: Relevant excerpts from retrieved documents with source filenames

Guidelines:
- Provide clear, accurate, and comprehensive answers based on the context
- Your answer should directly address the user's question
- If the context doesn't contain enough information, acknowledge this limitation
- Focus on practical guidance and actionable insights when appropriate
- Use specific examples from the context when relevant
- Maintain a professional but approachable tone
- Do not make up information that isn't supported by the context
- Keep your answer concise and focused on the user's question
- Use bullet points or numbered lists for clarity when appropriate`,

	driven.PromptReformulate: `You are an AI assistant helping users find information about AI policy and ethics.

The user has asked: "%s"

Reformulate this query to be more comprehensive and likely to match relevant content in AI ethics documents.
Add related terms, expand acronyms, and make the query more specific to AI policy, ethics, governance, or regulation topics.

Return only the reformulated query, nothing else.`,

	driven.PromptAnswer: `Context from AI Ethics Documents:
%s

User Question: %s

Provide a comprehensive answer based on the context above.
If the context doesn't fully address the question,
mention what information is available and what might be missing.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.ethica/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".ethica", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default
// files. Returns cached value if available, otherwise loads from file.
// Falls back to the embedded default if the file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so a concurrent load's value wins consistently.
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Ethica Prompts

This directory contains customisable prompts used by the assistant.

## Files

- ` + "`system.txt`" + ` - System prompt defining the assistant's role
- ` + "`reformulate.txt`" + ` - Rewrites questions for better retrieval
- ` + "`answer.txt`" + ` - Assembles retrieved context and the question

## Customisation

Edit any file to customise behaviour. Changes take effect on the next
command or after a reload.

## Format Placeholders

Prompts use Go fmt placeholders:
- ` + "`reformulate.txt`" + ` takes one ` + "`%s`" + ` (the question)
- ` + "`answer.txt`" + ` takes two ` + "`%s`" + ` (the context, then the question)

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
