package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/config/file"
	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/docstorage/filesystem"
	s3storage "github.com/ethica-ai/ethica-cli/internal/adapters/driven/docstorage/s3"
	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/ethica-ai/ethica-cli/internal/adapters/driven/embedding/openai"
	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/extraction/pdftotext"
	llmollama "github.com/ethica-ai/ethica-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/ethica-ai/ethica-cli/internal/adapters/driven/llm/openai"
	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/storage/sqlite"
	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/vector/memory"
	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/vector/qdrant"
	"github.com/ethica-ai/ethica-cli/internal/chunker"
	"github.com/ethica-ai/ethica-cli/internal/config"
	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driving"
	"github.com/ethica-ai/ethica-cli/internal/core/services"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Wired services, shared by all commands. Tests swap these for fakes.
var (
	appConfig config.Config
	ingestor  driving.Ingestor
	assistant driving.Assistant
	ledger    driven.IngestLedger

	closers []io.Closer
	wired   bool
)

// ensureServices loads the configuration and constructs the full
// adapter graph. Idempotent; commands call it at the top of RunE.
func ensureServices(ctx context.Context) error {
	if wired {
		return nil
	}

	path := cfgPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	appConfig = cfg
	if cfg.Verbose {
		logger.SetVerbose(true)
	}

	storage, err := buildStorage(ctx, cfg)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	vector := buildVector(cfg)
	prompts, err := file.NewPromptStore(cfg.Prompts.Dir)
	if err != nil {
		return fmt.Errorf("%w: prompt store: %w", domain.ErrConfiguration, err)
	}

	store, err := sqlite.NewStore(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("%w: ingest ledger: %w", domain.ErrConfiguration, err)
	}
	ledger = store

	closers = append(closers, embedder, llm, vector, store)

	// The collection must exist with the embedder's dimensionality
	// before anything is upserted or searched.
	if err := vector.EnsureCollection(ctx, embedder.Dimensions()); err != nil {
		return fmt.Errorf("%w: vector index: %w", domain.ErrConnectivity, err)
	}

	split := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestor = services.NewIngestionService(
		storage, pdftotext.New(), embedder, vector, ledger, split, cfg.Storage.Prefix)
	assistant = services.NewAnswerService(llm, embedder, vector, prompts)

	wired = true
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config) (driven.DocumentStorage, error) {
	switch cfg.Storage.Provider {
	case config.StorageS3:
		storage, err := s3storage.New(ctx, s3storage.Config{
			Bucket:   cfg.Storage.Bucket,
			Prefix:   cfg.Storage.Prefix,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return storage, nil
	case config.StorageFilesystem:
		storage, err := filesystem.New(filesystem.Config{Root: cfg.Storage.Root})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage provider %q", domain.ErrConfiguration, cfg.Storage.Provider)
	}
}

func buildEmbedder(cfg config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case config.ProviderOpenAI:
		embedder, err := openaiembed.New(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, cfg.Embedding.Provider)
	}
}

func buildLLM(cfg config.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOllama:
		return llmollama.New(llmollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}), nil
	case config.ProviderOpenAI:
		llm, err := llmopenai.New(llmopenai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", domain.ErrConfiguration, cfg.LLM.Provider)
	}
}

func buildVector(cfg config.Config) driven.VectorStore {
	if cfg.Vector.Provider == config.VectorMemory {
		return memory.New()
	}
	return qdrant.New(qdrant.Config{
		URL:        cfg.Vector.URL,
		APIKey:     cfg.Vector.APIKey,
		Collection: cfg.Vector.Collection,
	})
}

// closeServices releases wired adapters. Called once on exit.
func closeServices() {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	closers = nil
	wired = false
}
