package embedding

import (
	"fmt"

	"coursetutor/config"
	"coursetutor/internal/port"
)

// New creates the embedding adapter named by cfg.Provider.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
	case "ollama":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model), nil
	case "mock":
		return NewMockEmbedder(cfg.Model, cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// NewValidatingClient wraps the configured adapter in a retrying Client that
// enforces cfg.Dimension, or the first observed dimension when unset.
func NewValidatingClient(cfg config.EmbeddingConfig) (*Client, error) {
	embedder, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(embedder, ClientOptions{
		Dimension:   cfg.Dimension,
		MaxAttempts: cfg.MaxAttempts,
	}), nil
}

// NewQueryClient is like NewValidatingClient but leaves the dimension check
// to the retriever, which compares query vectors against the loaded store.
func NewQueryClient(cfg config.EmbeddingConfig) (*Client, error) {
	embedder, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(embedder, ClientOptions{MaxAttempts: cfg.MaxAttempts}), nil
}
