package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"coursetutor/internal/adapter/embedding"
	"coursetutor/internal/domain"
	"coursetutor/internal/port"
	"coursetutor/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLLM struct {
	answer string
	err    error
}

func (s stubLLM) Generate(context.Context, port.GenerateRequest) (string, error) {
	return s.answer, s.err
}
func (s stubLLM) ProviderName() string { return "stub" }
func (s stubLLM) ModelName() string    { return "stub-1" }

func newTestServer(t *testing.T, llm stubLLM) *Server {
	t.Helper()
	return newTestServerWithEmbedder(t, embedding.NewMockEmbedder("mock-embed", 16), func(provider, model string) (port.LLM, error) {
		if provider != "" && provider != "stub" {
			return nil, fmt.Errorf("unsupported llm provider: %s", provider)
		}
		return llm, nil
	})
}

func newTestServerWithEmbedder(t *testing.T, queryEmbedder port.Embedder, newLLM LLMFactory) *Server {
	t.Helper()
	embedder := embedding.NewMockEmbedder("mock-embed", 16)

	chunks := []domain.Chunk{
		{ID: 0, VideoID: "01", VideoTitle: "Intro to HTML", VideoNumber: "1", Text: "intro to HTML HTML tags", Start: 0, End: 60},
		{ID: 1, VideoID: "02", VideoTitle: "CSS selectors", VideoNumber: "2", Text: "selectors pick elements by class", Start: 0, End: 45},
	}
	texts := []string{chunks[0].Text, chunks[1].Text}
	vecs, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}

	st := &domain.Store{Model: "mock-embed", Dimension: 16, BuildID: "test-build"}
	for i, c := range chunks {
		st.Records = append(st.Records, domain.EmbeddingRecord{Chunk: c, Vector: vecs[i]})
	}

	ask := usecase.NewAskUseCase(st, queryEmbedder, usecase.AskOptions{TopK: 2})
	return New(ask, newLLM)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestServer(t, stubLLM{}), http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["records"].(float64) != 2 || body["build_id"] != "test-build" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestSearch(t *testing.T) {
	w := do(t, newTestServer(t, stubLLM{}), http.MethodPost, "/v1/search", map[string]any{
		"question": "intro to HTML HTML tags",
		"top_k":    1,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Results []source `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Results) != 1 || body.Results[0].VideoID != "01" || body.Results[0].TimeRange != "00:00-01:00" {
		t.Errorf("unexpected results: %+v", body.Results)
	}
}

func TestSearchBadRequests(t *testing.T) {
	s := newTestServer(t, stubLLM{})

	for name, body := range map[string]any{
		"missing question": map[string]any{"top_k": 3},
		"blank question":   map[string]any{"question": "   "},
		"negative top_k":   map[string]any{"question": "html", "top_k": -1},
	} {
		if w := do(t, s, http.MethodPost, "/v1/search", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestAsk(t *testing.T) {
	w := do(t, newTestServer(t, stubLLM{answer: "See video 1 at 00:00."}), http.MethodPost, "/v1/ask", map[string]any{
		"question": "what are html tags?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Answer   string   `json:"answer"`
		Provider string   `json:"provider"`
		Sources  []source `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Answer != "See video 1 at 00:00." || body.Provider != "stub" || len(body.Sources) != 2 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAskUnknownProvider(t *testing.T) {
	w := do(t, newTestServer(t, stubLLM{}), http.MethodPost, "/v1/ask", map[string]any{
		"question": "html?",
		"provider": "gemini",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAskProviderErrors(t *testing.T) {
	tests := []struct {
		kind   domain.LLMErrorKind
		status int
		code   string
	}{
		{domain.LLMAuth, http.StatusBadGateway, "llm_auth"},
		{domain.LLMRateLimit, http.StatusTooManyRequests, "llm_rate_limit"},
		{domain.LLMTimeout, http.StatusGatewayTimeout, "llm_timeout"},
		{domain.LLMNetwork, http.StatusBadGateway, "llm_network"},
		{domain.LLMServer, http.StatusBadGateway, "llm_server"},
	}

	for _, tt := range tests {
		llm := stubLLM{err: &domain.LLMProviderError{Provider: "stub", Kind: tt.kind}}
		w := do(t, newTestServer(t, llm), http.MethodPost, "/v1/ask", map[string]any{"question": "html?"})

		if w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.kind, w.Code, tt.status)
		}
		var body map[string]string
		json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != tt.code {
			t.Errorf("%s: error code = %q, want %q", tt.kind, body["error"], tt.code)
		}
	}
}

func TestAskMissingAPIKeyIsAuthError(t *testing.T) {
	s := newTestServerWithEmbedder(t, embedding.NewMockEmbedder("mock-embed", 16), func(provider, model string) (port.LLM, error) {
		return nil, &domain.LLMProviderError{Provider: "openai", Kind: domain.LLMAuth, Message: "API key not found"}
	})

	w := do(t, s, http.MethodPost, "/v1/ask", map[string]any{"question": "html?"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "llm_auth" {
		t.Errorf("error code = %q, want llm_auth", body["error"])
	}
}

// nanEmbedder returns vectors of the right shape that contain NaN.
type nanEmbedder struct{}

func (nanEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 16)
		out[i][0] = float32(math.NaN())
	}
	return out, nil
}

func (nanEmbedder) ModelName() string { return "mock-embed" }

func TestSearchInvalidQueryVector(t *testing.T) {
	s := newTestServerWithEmbedder(t, nanEmbedder{}, func(string, string) (port.LLM, error) {
		return stubLLM{}, nil
	})

	w := do(t, s, http.MethodPost, "/v1/search", map[string]any{"question": "html"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "embedding_invalid" {
		t.Errorf("error code = %q, want embedding_invalid", body["error"])
	}
}
