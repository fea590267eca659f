package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate produces a completion for the request.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// ProviderName identifies the backend, e.g. "openai".
	ProviderName() string

	// ModelName returns the name of the model.
	ModelName() string
}

// GenerateRequest carries the prompt and generation parameters.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}
