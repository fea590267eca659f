// Package server exposes the ask use case as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coursetutor/internal/domain"
	"coursetutor/internal/port"
	"coursetutor/internal/usecase"
)

// LLMFactory builds a provider for one request. Empty arguments select the
// configured defaults.
type LLMFactory func(provider, model string) (port.LLM, error)

type Server struct {
	ask    *usecase.AskUseCase
	newLLM LLMFactory
	router *gin.Engine
}

func New(ask *usecase.AskUseCase, newLLM LLMFactory) *Server {
	s := &Server{
		ask:    ask,
		newLLM: newLLM,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())

	s.router.GET("/healthz", s.healthz)
	v1 := s.router.Group("/v1")
	{
		v1.POST("/search", s.search)
		v1.POST("/ask", s.answer)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("http server stopped")
	return nil
}

type searchRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type source struct {
	VideoID     string  `json:"video_id"`
	VideoTitle  string  `json:"video_title,omitempty"`
	VideoNumber string  `json:"video_number,omitempty"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	TimeRange   string  `json:"time_range"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

func toSources(result domain.RetrievalResult) []source {
	out := make([]source, 0, len(result))
	for _, sc := range result {
		out = append(out, source{
			VideoID:     sc.Chunk.VideoID,
			VideoTitle:  sc.Chunk.VideoTitle,
			VideoNumber: sc.Chunk.VideoNumber,
			Start:       sc.Chunk.Start,
			End:         sc.Chunk.End,
			TimeRange:   sc.Chunk.TimeRange(),
			Text:        sc.Chunk.Text,
			Score:       sc.Score,
		})
	}
	return out
}

func (s *Server) healthz(c *gin.Context) {
	st := s.ask.Store()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"model":     st.Model,
		"dimension": st.Dimension,
		"records":   st.Len(),
		"build_id":  st.BuildID,
	})
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	results, err := s.ask.Search(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toSources(results)})
}

func (s *Server) answer(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	provider, err := s.newLLM(req.Provider, req.Model)
	if err != nil {
		var llmErr *domain.LLMProviderError
		if errors.As(err, &llmErr) {
			writeError(c, err)
			return
		}
		abort(c, http.StatusBadRequest, "llm_config", err.Error())
		return
	}

	ans, err := s.ask.Ask(c.Request.Context(), domain.Query{
		Text:     req.Question,
		Provider: req.Provider,
		Model:    req.Model,
		TopK:     req.TopK,
	}, provider)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":   ans.Text,
		"provider": ans.Provider,
		"model":    ans.Model,
		"sources":  toSources(ans.Sources),
	})
}

// writeError maps domain failures onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		llmErr   *domain.LLMProviderError
		embedErr *domain.EmbeddingServiceError
		storeErr *domain.StoreCorruptError
	)

	switch {
	case errors.Is(err, domain.ErrEmptyQuestion), errors.Is(err, domain.ErrInvalidTopK):
		abort(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &llmErr):
		status := http.StatusBadGateway
		switch llmErr.Kind {
		case domain.LLMRateLimit:
			status = http.StatusTooManyRequests
		case domain.LLMTimeout:
			status = http.StatusGatewayTimeout
		}
		abort(c, status, "llm_"+string(llmErr.Kind), err.Error())
	case errors.As(err, &embedErr):
		abort(c, http.StatusBadGateway, "embedding_unavailable", err.Error())
	case errors.Is(err, domain.ErrInvalidQueryVector):
		abort(c, http.StatusBadGateway, "embedding_invalid", err.Error())
	case errors.As(err, &storeErr):
		abort(c, http.StatusInternalServerError, "store_incompatible", err.Error())
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		abort(c, http.StatusInternalServerError, "internal", err.Error())
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
