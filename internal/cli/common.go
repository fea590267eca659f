package cli

import (
	"fmt"
	"strings"
	"time"

	"coursetutor/config"
	"coursetutor/internal/adapter/cache"
	"coursetutor/internal/adapter/embedding"
	"coursetutor/internal/adapter/llm"
	"coursetutor/internal/adapter/store"
	"coursetutor/internal/domain"
	"coursetutor/internal/port"
	"coursetutor/internal/usecase"
)

const (
	queryCacheSize = 256
	queryCacheTTL  = 30 * time.Minute
)

// openAskUseCase loads the configured store and wires the query embedder.
func openAskUseCase(cfg *config.Config, rootDir string) (*usecase.AskUseCase, error) {
	newEmbedder := func() (port.Embedder, error) {
		client, err := embedding.NewQueryClient(cfg.Embedding)
		if err != nil {
			return nil, err
		}
		return cache.NewCachedEmbedder(client, cache.NewQueryCache(queryCacheSize, queryCacheTTL)), nil
	}

	return usecase.OpenAskUseCase(cfg.StorePath(rootDir), newEmbedder, usecase.AskOptions{
		TopK:       cfg.Retrieve.TopK,
		MinScore:   cfg.Retrieve.MinScore,
		ConfigHash: store.ComputeConfigHash(cfg),
		Generate: usecase.GenerateOptions{
			CourseName:  cfg.Assistant.CourseName,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		},
	})
}

// newLLM builds a provider from the configured LLM settings, optionally
// switching provider or model.
func newLLM(cfg *config.Config, provider, model string) (port.LLM, error) {
	llmCfg := cfg.LLM.WithProvider(provider)
	if model != "" {
		llmCfg.Model = model
	}
	return llm.New(llmCfg)
}

func printResults(results domain.RetrievalResult) {
	for i, r := range results {
		c := r.Chunk
		title := c.VideoTitle
		if title == "" {
			title = c.VideoID
		}
		if c.VideoNumber != "" {
			title = fmt.Sprintf("#%s %s", c.VideoNumber, title)
		}
		fmt.Printf("--- [%d] %s %s (score: %.3f) ---\n", i+1, title, c.TimeRange(), r.Score)
		// Truncate long text for display
		text := c.Text
		if short := truncate(text, 500); short != text {
			text = short + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

func questionFrom(flag string, args []string) string {
	if flag != "" {
		return flag
	}
	return strings.Join(args, " ")
}
