package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTopK        = errors.New("top-k must be a positive integer")
	ErrInvalidQueryVector = errors.New("query vector contains non-finite values")
	ErrEmptyCorpus        = errors.New("no transcript segments found")
	ErrEmptyQuestion      = errors.New("question must not be empty")
)

// EmbeddingServiceError reports a failed or malformed embedding call.
// Transient errors may be retried; anything else aborts the build.
type EmbeddingServiceError struct {
	Model     string
	Reason    string
	Transient bool
	Err       error
}

func (e *EmbeddingServiceError) Error() string {
	msg := fmt.Sprintf("embedding service (%s): %s", e.Model, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

type StoreNotFoundError struct {
	Path string
}

func (e *StoreNotFoundError) Error() string {
	return fmt.Sprintf("embedding store not found at %s (run 'coursetutor build' first)", e.Path)
}

// StoreCorruptError means the artifact cannot be trusted, or that a query
// is incompatible with it (different model or dimensionality).
type StoreCorruptError struct {
	Path   string
	Reason string
	Err    error
}

func (e *StoreCorruptError) Error() string {
	msg := "embedding store"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += " is unusable: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreCorruptError) Unwrap() error { return e.Err }

// LLMErrorKind classifies provider failures so callers can decide between
// retrying and surfacing a configuration problem.
type LLMErrorKind string

const (
	LLMAuth      LLMErrorKind = "auth"
	LLMRateLimit LLMErrorKind = "rate_limit"
	LLMNetwork   LLMErrorKind = "network"
	LLMTimeout   LLMErrorKind = "timeout"
	LLMMalformed LLMErrorKind = "malformed"
	LLMServer    LLMErrorKind = "server"
)

type LLMProviderError struct {
	Provider   string
	Kind       LLMErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *LLMProviderError) Error() string {
	msg := fmt.Sprintf("llm provider %s: %s", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LLMProviderError) Unwrap() error { return e.Err }

// Retryable reports whether a caller may reasonably try the same request again.
func (e *LLMProviderError) Retryable() bool {
	switch e.Kind {
	case LLMRateLimit, LLMNetwork, LLMTimeout, LLMServer:
		return true
	}
	return false
}
