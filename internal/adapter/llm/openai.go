package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"coursetutor/internal/port"
)

// OpenAIProvider speaks the chat completions protocol. DeepSeek and other
// OpenAI-compatible services use it with a different base URL.
type OpenAIProvider struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type openAIErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewOpenAIProvider(name, apiKey, model, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		name:    name,
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var resp chatResponse
	err := postJSON(ctx, p.client, p.name, p.baseURL+"/chat/completions", headers, chatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &resp, openAIErrorMessage)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", malformedError(p.name, "response has no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) ProviderName() string { return p.name }
func (p *OpenAIProvider) ModelName() string    { return p.model }

func openAIErrorMessage(body []byte) string {
	var e openAIErrorBody
	if json.Unmarshal(body, &e) == nil && e.Error != nil {
		return e.Error.Message
	}
	return ""
}
