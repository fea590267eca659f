package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coursetutor/internal/domain"
)

// OllamaEmbedder calls Ollama's native /api/embed endpoint, which accepts a
// batch of inputs and answers in input order.
type OllamaEmbedder struct {
	host       string
	model      string
	httpClient *http.Client
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func NewOllamaEmbedder(host, model string) *OllamaEmbedder {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &OllamaEmbedder{
		host:  strings.TrimRight(host, "/"),
		model: model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, c.model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, c.model, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(c.model, resp.StatusCode, data)
	}

	var result ollamaEmbedResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &domain.EmbeddingServiceError{Model: c.model, Reason: "decode embed response", Err: err}
	}
	if result.Error != "" {
		return nil, &domain.EmbeddingServiceError{Model: c.model, Reason: "ollama error: " + result.Error}
	}

	return result.Embeddings, nil
}

func (c *OllamaEmbedder) ModelName() string {
	return c.model
}
