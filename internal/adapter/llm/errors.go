package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"coursetutor/internal/domain"
)

// transportError classifies a failed round trip as a timeout or a plain
// network failure.
func transportError(provider string, err error) error {
	kind := domain.LLMNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = domain.LLMTimeout
	}
	return &domain.LLMProviderError{Provider: provider, Kind: kind, Err: err}
}

func statusError(provider string, status int, message string) error {
	kind := domain.LLMServer
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.LLMAuth
	case http.StatusTooManyRequests:
		kind = domain.LLMRateLimit
	}
	return &domain.LLMProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Message:    message,
	}
}

func malformedError(provider, message string, err error) error {
	return &domain.LLMProviderError{
		Provider: provider,
		Kind:     domain.LLMMalformed,
		Message:  message,
		Err:      err,
	}
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
