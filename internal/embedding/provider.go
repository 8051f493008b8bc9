package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"go.uber.org/zap"
)

// Provider constants
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGenAI  = "genai"
	ProviderMock   = "mock"
)

// ErrNoProvider is returned when no embedding provider is named. The mock
// client is never picked implicitly.
var ErrNoProvider = errors.New("no embedding provider configured")

// Options selects and configures an embedding provider.
type Options struct {
	Provider       string
	APIKey         string
	OllamaEndpoint string
	OllamaModel    string
}

// Named is implemented by clients that can identify their model. The name
// scopes persisted embeddings.
type Named interface {
	Name() string
}

// NewClient creates an embedding client for the configured provider.
// Returns an error if the provider is unknown or a required API key is empty.
func NewClient(ctx context.Context, opts Options) (domain.BatchEmbeddingClient, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI embedding provider")
		}
		return NewOpenAIClient(opts.APIKey), nil

	case ProviderOllama:
		return NewOllamaClient(opts.OllamaEndpoint, opts.OllamaModel), nil

	case ProviderGenAI:
		c, err := NewGenAIClient(ctx, opts.APIKey, "")
		if err != nil {
			return nil, err
		}
		return c, nil

	case ProviderMock:
		return NewMockClient(), nil

	case "":
		return nil, ErrNoProvider

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (valid options: openai, ollama, genai, mock)", opts.Provider)
	}
}

// ModelName returns c's model name, or "unknown" when c does not report one.
func ModelName(c domain.EmbeddingClient) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return "unknown"
}

// NewLoader returns a function building the configured client on demand,
// wrapped in a CachedClient when cache is non-nil. It fits
// similarity.Loader. A failed load is retried by the caller, so only the
// first failure logs at Warn.
func NewLoader(opts Options, cache domain.EmbeddingCache, logger *zap.Logger) func(context.Context) (domain.EmbeddingClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var warned atomic.Bool
	return func(ctx context.Context) (domain.EmbeddingClient, error) {
		client, err := NewClient(ctx, opts)
		if err != nil {
			log := logger.Debug
			if warned.CompareAndSwap(false, true) {
				log = logger.Warn
			}
			log("Embedding client initialization failed, themes will be matched lexically",
				zap.String("provider", opts.Provider), zap.Error(err))
			return nil, err
		}
		logger.Info("Embedding client initialized",
			zap.String("provider", opts.Provider),
			zap.String("model", ModelName(client)),
			zap.Bool("persistent_cache", cache != nil),
		)
		if cache != nil {
			return NewCachedClient(client, cache, logger), nil
		}
		return client, nil
	}
}
