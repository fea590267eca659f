package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"coursetutor/internal/domain"
	"coursetutor/internal/port"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	maxBackoff         = 10 * time.Second
)

// ClientOptions tunes the validating client.
type ClientOptions struct {
	// Dimension is the expected vector length. Zero adopts the length of
	// the first successful response and enforces it afterwards.
	Dimension   int
	MaxAttempts int
	BaseDelay   time.Duration
}

// Client wraps an embedding adapter with bounded exponential retry of
// transient failures and strict validation of every response. It is safe for
// concurrent use by multiple batch workers.
type Client struct {
	embedder    port.Embedder
	maxAttempts int
	baseDelay   time.Duration

	mu        sync.Mutex
	dimension int
}

func NewClient(embedder port.Embedder, opts ClientOptions) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	return &Client{
		embedder:    embedder,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		dimension:   opts.Dimension,
	}
}

// Embed implements port.Embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.EmbedBatch(ctx, texts)
}

// EmbedBatch returns one vector per text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := c.embedder.ModelName()
	backoff := retry.WithCappedDuration(maxBackoff, retry.NewExponential(c.baseDelay))
	backoff = retry.WithMaxRetries(uint64(c.maxAttempts-1), backoff)

	attempt := 0
	var vectors [][]float32
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			var svcErr *domain.EmbeddingServiceError
			if errors.As(err, &svcErr) && svcErr.Transient {
				slog.Warn("embedding request failed, retrying",
					"model", model, "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		vectors = out
		return nil
	})
	if err != nil {
		var svcErr *domain.EmbeddingServiceError
		if errors.As(err, &svcErr) {
			return nil, err
		}
		return nil, &domain.EmbeddingServiceError{Model: model, Reason: "embedding failed", Err: err}
	}

	if err := c.validate(model, texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *Client) validate(model string, texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return &domain.EmbeddingServiceError{
			Model:  model,
			Reason: fmt.Sprintf("expected %d vectors, got %d", len(texts), len(vectors)),
		}
	}

	for i, v := range vectors {
		if err := c.checkDimension(len(v)); err != nil {
			return &domain.EmbeddingServiceError{
				Model:  model,
				Reason: fmt.Sprintf("vector %d: %v", i, err),
			}
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return &domain.EmbeddingServiceError{
					Model:  model,
					Reason: fmt.Sprintf("vector %d contains non-finite values", i),
				}
			}
		}
	}
	return nil
}

func (c *Client) checkDimension(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n == 0 {
		return fmt.Errorf("empty vector")
	}
	if c.dimension == 0 {
		c.dimension = n
		return nil
	}
	if n != c.dimension {
		return fmt.Errorf("dimension %d, expected %d", n, c.dimension)
	}
	return nil
}

// Dimension returns the enforced vector length, or 0 before the first
// response when none was configured.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

func (c *Client) ModelName() string {
	return c.embedder.ModelName()
}
