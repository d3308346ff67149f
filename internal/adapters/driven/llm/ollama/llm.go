// Package ollama provides a generation service adapter using Ollama.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.LLMService = (*Service)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama generation service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout for blocking calls (default: 120s).
	// Streaming calls are bounded by the caller's context instead.
	Timeout time.Duration
}

// Service generates answers through the Ollama chat API.
type Service struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// New creates a new Ollama generation service.
func New(cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Service{
		client: &http.Client{Timeout: cfg.Timeout},
		// No client timeout for streaming: it would cut off long
		// generations mid-stream. The request context bounds it.
		streamClient: &http.Client{},
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
	}
}

// Generate produces a complete answer in one blocking call.
func (s *Service) Generate(ctx context.Context, systemPrompt, userPrompt string, opts driven.GenerateOptions) (string, error) {
	resp, err := s.chat(ctx, s.client, systemPrompt, userPrompt, opts, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// GenerateStream produces an answer incrementally. Ollama streams
// newline-delimited JSON objects; each becomes one token on the
// channel. The channel is closed after the final Done token.
func (s *Service) GenerateStream(
	ctx context.Context, systemPrompt, userPrompt string, opts driven.GenerateOptions,
) (<-chan driven.StreamToken, error) {
	resp, err := s.chat(ctx, s.streamClient, systemPrompt, userPrompt, opts, true)
	if err != nil {
		return nil, err
	}

	tokens := make(chan driven.StreamToken)
	go func() {
		defer close(tokens)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				s.emit(ctx, tokens, driven.StreamToken{Err: fmt.Errorf("decode stream chunk: %w", err)})
				return
			}

			if chunk.Message.Content != "" {
				if !s.emit(ctx, tokens, driven.StreamToken{Content: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				s.emit(ctx, tokens, driven.StreamToken{Done: true})
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.emit(ctx, tokens, driven.StreamToken{Err: fmt.Errorf("read stream: %w", err)})
			return
		}
		// Stream ended without a done marker; close out anyway.
		s.emit(ctx, tokens, driven.StreamToken{Done: true})
	}()
	return tokens, nil
}

// emit sends a token unless the caller has gone away.
func (s *Service) emit(ctx context.Context, tokens chan<- driven.StreamToken, tok driven.StreamToken) bool {
	select {
	case tokens <- tok:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) chat(
	ctx context.Context, client *http.Client,
	systemPrompt, userPrompt string, opts driven.GenerateOptions, stream bool,
) (*http.Response, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatRequest{
		Model:    s.model,
		Messages: messages,
		Stream:   stream,
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		reqBody.Options = &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// ModelName returns the name of the chat model being used.
func (s *Service) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags
// endpoint without running inference.
func (s *Service) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *Service) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
