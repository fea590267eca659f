package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"coursetutor/internal/port"
)

type OllamaProvider struct {
	host   string
	model  string
	client *http.Client
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func NewOllamaProvider(host, model string) *OllamaProvider {
	return &OllamaProvider{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: newHTTPClient(),
	}
}

func (p *OllamaProvider) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	var resp ollamaChatResponse
	err := postJSON(ctx, p.client, "ollama", p.host+"/api/chat", nil, ollamaChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	}, &resp, ollamaErrorMessage)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (p *OllamaProvider) ProviderName() string { return "ollama" }
func (p *OllamaProvider) ModelName() string    { return p.model }

func ollamaErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		return e.Error
	}
	return ""
}
