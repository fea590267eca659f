package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coursetutor/internal/domain"
)

// transportError wraps a failed round trip. Network failures are transient
// unless the caller's context is what ended the request.
func transportError(ctx context.Context, model string, err error) error {
	transient := ctx.Err() == nil && !errors.Is(err, context.Canceled)
	return &domain.EmbeddingServiceError{
		Model:     model,
		Reason:    "request failed",
		Transient: transient,
		Err:       err,
	}
}

// statusError maps a non-200 response. Rate limiting and server errors are
// worth retrying; client errors are not.
func statusError(model string, status int, body []byte) error {
	return &domain.EmbeddingServiceError{
		Model:     model,
		Reason:    fmt.Sprintf("API returned status %d: %s", status, preview(body)),
		Transient: status == http.StatusTooManyRequests || status >= 500,
	}
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
