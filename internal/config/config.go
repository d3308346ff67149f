// Package config loads the application's TOML configuration and
// applies defaults and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ethica-ai/ethica-cli/internal/chunker"
	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/services"
)

// Provider names accepted in the configuration.
const (
	StorageS3         = "s3"
	StorageFilesystem = "filesystem"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	VectorQdrant = "qdrant"
	VectorMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	Verbose bool `toml:"verbose"`

	Storage   Storage   `toml:"storage"`
	Vector    Vector    `toml:"vector"`
	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
	Chunking  Chunking  `toml:"chunking"`
	Retrieval Retrieval `toml:"retrieval"`
	Server    Server    `toml:"server"`
	Prompts   Prompts   `toml:"prompts"`
	Ledger    Ledger    `toml:"ledger"`
}

// Storage selects and configures the document source.
type Storage struct {
	// Provider is "s3" or "filesystem".
	Provider string `toml:"provider"`

	// Bucket is the S3 bucket name (s3 provider).
	Bucket string `toml:"bucket"`

	// Prefix narrows S3 listings to one key prefix.
	Prefix string `toml:"prefix"`

	// Region is the AWS region (s3 provider).
	Region string `toml:"region"`

	// Endpoint overrides the S3 endpoint for compatible stores.
	Endpoint string `toml:"endpoint"`

	// Root is the documents directory (filesystem provider).
	Root string `toml:"root"`
}

// Vector configures the vector index.
type Vector struct {
	// Provider is "qdrant" or "memory".
	Provider string `toml:"provider"`

	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// Embedding configures the embedding backend.
type Embedding struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// LLM configures the generation backend.
type LLM struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
}

// Chunking configures the text splitter.
type Chunking struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// Retrieval configures the answer pipeline.
type Retrieval struct {
	TopK int `toml:"top_k"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Prompts configures the prompt template directory.
type Prompts struct {
	Dir string `toml:"dir"`
}

// Ledger configures the local ingestion ledger.
type Ledger struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Storage: Storage{
			Provider: StorageFilesystem,
			Root:     "documents",
			Prefix:   "documents/",
		},
		Vector: Vector{
			Provider:   VectorQdrant,
			URL:        "http://localhost:6333",
			Collection: "documents",
		},
		Embedding: Embedding{
			Provider: ProviderOllama,
		},
		LLM: LLM{
			Provider: ProviderOllama,
		},
		Chunking: Chunking{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultOverlap,
		},
		Retrieval: Retrieval{
			TopK: services.DefaultTopK,
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// DefaultPath is the config file location used when --config is not
// given: ~/.ethica/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".ethica", "config.toml"), nil
}

// Load reads the TOML file at path on top of the defaults. A missing
// file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("%w: read config %s: %w", domain.ErrConfiguration, path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse config %s: %w", domain.ErrConfiguration, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown providers and out-of-range values before
// any adapter is constructed.
func (c Config) Validate() error {
	switch c.Storage.Provider {
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("%w: storage.bucket is required for the s3 provider", domain.ErrConfiguration)
		}
	case StorageFilesystem:
		if c.Storage.Root == "" {
			return fmt.Errorf("%w: storage.root is required for the filesystem provider", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown storage.provider %q", domain.ErrConfiguration, c.Storage.Provider)
	}

	switch c.Vector.Provider {
	case VectorQdrant, VectorMemory:
	default:
		return fmt.Errorf("%w: unknown vector.provider %q", domain.ErrConfiguration, c.Vector.Provider)
	}

	switch c.Embedding.Provider {
	case ProviderOllama:
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("%w: embedding.api_key is required for the openai provider", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown embedding.provider %q", domain.ErrConfiguration, c.Embedding.Provider)
	}

	switch c.LLM.Provider {
	case ProviderOllama:
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key is required for the openai provider", domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", domain.ErrConfiguration, c.LLM.Provider)
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", domain.ErrConfiguration)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, chunking.size)", domain.ErrConfiguration)
	}
	if c.Retrieval.TopK < services.MinTopK || c.Retrieval.TopK > services.MaxTopK {
		return fmt.Errorf("%w: retrieval.top_k must be in [%d, %d]",
			domain.ErrConfiguration, services.MinTopK, services.MaxTopK)
	}
	return nil
}
