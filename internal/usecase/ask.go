package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"coursetutor/internal/adapter/retriever"
	"coursetutor/internal/adapter/store"
	"coursetutor/internal/domain"
	"coursetutor/internal/port"
)

// AskOptions holds query-side defaults.
type AskOptions struct {
	TopK       int
	MinScore   float64 // Filter results below this score (0 = disabled)
	ConfigHash string  // hash of the running configuration, compared with the store's
	Generate   GenerateOptions
}

// AskUseCase answers questions against a loaded, read-only store.
type AskUseCase struct {
	store     *domain.Store
	embedder  port.Embedder
	generator *Generator
	opts      AskOptions
}

// NewAskUseCase creates a new ask use case over st.
func NewAskUseCase(st *domain.Store, embedder port.Embedder, opts AskOptions) *AskUseCase {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.ConfigHash != "" && st.ConfigHash != "" && opts.ConfigHash != st.ConfigHash {
		slog.Warn("store was built with different chunking or embedding settings; consider rebuilding",
			"store_hash", st.ConfigHash, "config_hash", opts.ConfigHash)
	}
	return &AskUseCase{
		store:     st,
		embedder:  embedder,
		generator: NewGenerator(opts.Generate),
		opts:      opts,
	}
}

// EmbedderFactory creates the query embedder.
type EmbedderFactory func() (port.Embedder, error)

// OpenAskUseCase loads the store at storePath and only then creates the
// query embedder, so a missing or corrupt store is reported before any
// credentials are needed or any model is contacted.
func OpenAskUseCase(storePath string, newEmbedder EmbedderFactory, opts AskOptions) (*AskUseCase, error) {
	st, err := store.Load(storePath)
	if err != nil {
		return nil, err
	}
	slog.Debug("store loaded", "path", storePath, "records", st.Len(), "model", st.Model, "dimension", st.Dimension)

	embedder, err := newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return NewAskUseCase(st, embedder, opts), nil
}

// Store returns the loaded store. Callers must not modify it.
func (u *AskUseCase) Store() *domain.Store {
	return u.store
}

// Search embeds question and returns the k most similar chunks. A k of 0
// selects the configured default.
func (u *AskUseCase) Search(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if k == 0 {
		k = u.opts.TopK
	}
	if k < 0 {
		return nil, domain.ErrInvalidTopK
	}

	if model := u.embedder.ModelName(); model != u.store.Model {
		return nil, &domain.StoreCorruptError{
			Reason: fmt.Sprintf("store was built with embedding model %q but %q is configured", u.store.Model, model),
		}
	}

	vecs, err := u.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vecs) != 1 {
		return nil, &domain.EmbeddingServiceError{
			Model:  u.embedder.ModelName(),
			Reason: fmt.Sprintf("expected 1 vector, got %d", len(vecs)),
		}
	}

	results, err := retriever.Retrieve(vecs[0], u.store, k)
	if err != nil {
		return nil, err
	}

	if u.opts.MinScore > 0 {
		results = u.filterByThreshold(results)
	}
	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *AskUseCase) filterByThreshold(results domain.RetrievalResult) domain.RetrievalResult {
	filtered := make(domain.RetrievalResult, 0, len(results))
	for _, r := range results {
		if r.Score >= u.opts.MinScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Ask retrieves context for q and asks provider for a grounded answer.
func (u *AskUseCase) Ask(ctx context.Context, q domain.Query, provider port.LLM) (*domain.Answer, error) {
	sources, err := u.Search(ctx, q.Text, q.TopK)
	if err != nil {
		return nil, err
	}

	text, err := u.generator.Generate(ctx, strings.TrimSpace(q.Text), sources, provider)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Question: q.Text,
		Text:     text,
		Provider: provider.ProviderName(),
		Model:    provider.ModelName(),
		Sources:  sources,
	}, nil
}

// Prompt renders the prompt Ask would send, without calling a model.
func (u *AskUseCase) Prompt(ctx context.Context, q domain.Query) (string, domain.RetrievalResult, error) {
	sources, err := u.Search(ctx, q.Text, q.TopK)
	if err != nil {
		return "", nil, err
	}
	prompt, err := RenderPrompt(u.opts.Generate.CourseName, strings.TrimSpace(q.Text), sources)
	if err != nil {
		return "", nil, err
	}
	return prompt, sources, nil
}
