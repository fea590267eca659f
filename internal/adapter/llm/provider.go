package llm

import (
	"fmt"
	"os"

	"coursetutor/config"
	"coursetutor/internal/domain"
	"coursetutor/internal/port"
)

type providerDefaults struct {
	baseURL   string
	keyEnvVar string
	model     string
}

var defaults = map[string]providerDefaults{
	"openai":    {"https://api.openai.com/v1", "OPENAI_API_KEY", "gpt-3.5-turbo"},
	"deepseek":  {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY", "deepseek-chat"},
	"anthropic": {"https://api.anthropic.com", "ANTHROPIC_API_KEY", "claude-3-5-haiku-latest"},
	"ollama":    {"http://localhost:11434", "", "llama3.2"},
}

// New builds the provider named by cfg.Provider. Empty model, base URL and
// key variable fall back to the provider's defaults.
func New(cfg config.LLMConfig) (port.LLM, error) {
	d, ok := defaults[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	model := cfg.Model
	if model == "" {
		model = d.model
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = d.baseURL
		if cfg.Provider == "ollama" {
			if v := os.Getenv("OLLAMA_URL"); v != "" {
				baseURL = v
			}
		}
	}
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = d.keyEnvVar
	}

	var apiKey string
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, &domain.LLMProviderError{
				Provider: cfg.Provider,
				Kind:     domain.LLMAuth,
				Message:  fmt.Sprintf("API key not found. Set %s environment variable", keyEnv),
			}
		}
	}

	switch cfg.Provider {
	case "openai", "deepseek":
		return NewOpenAIProvider(cfg.Provider, apiKey, model, baseURL), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, baseURL), nil
	default:
		return NewOllamaProvider(baseURL, model), nil
	}
}
