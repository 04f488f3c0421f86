// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ProviderErrorKind classifies a chat or embedding backend failure.
type ProviderErrorKind string

const (
	// ProviderAuth is a credential failure. Not retryable.
	ProviderAuth ProviderErrorKind = "auth"

	// ProviderRateLimit is an upstream throttle. Retryable with backoff.
	ProviderRateLimit ProviderErrorKind = "rate_limit"

	// ProviderTimeout is a deadline or transport timeout. Retryable.
	ProviderTimeout ProviderErrorKind = "timeout"

	// ProviderMalformedResponse means the backend replied with something
	// the adapter could not decode. Not retryable.
	ProviderMalformedResponse ProviderErrorKind = "malformed_response"
)

// ProviderError is a normalized chat/embedding backend failure.
type ProviderError struct {
	Kind ProviderErrorKind
	Op   string // "chat" or "embed"
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the call site may retry with backoff.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderRateLimit || e.Kind == ProviderTimeout
}

// ToolErrorKind classifies a tool server failure.
type ToolErrorKind string

const (
	// ToolUnreachable means the tool server could not be contacted.
	ToolUnreachable ToolErrorKind = "unreachable"

	// ToolBadResponse means the tool server replied but the payload was
	// not usable.
	ToolBadResponse ToolErrorKind = "bad_response"
)

// ToolError is a normalized tool server failure. The tool client does not
// retry; retry policy belongs to the orchestrator.
type ToolError struct {
	Kind ToolErrorKind
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// SummarizeError reports one article's summarization failure. Individual
// failures are excluded from the digest and counted, never fatal to the batch.
type SummarizeError struct {
	Article Article
	Err     error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarize %q: %v", e.Article.Title, e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }

// CacheErrorKind classifies a semantic cache failure.
type CacheErrorKind string

const (
	// CacheStoreUnavailable means the on-disk store could not be read or
	// written.
	CacheStoreUnavailable CacheErrorKind = "store_unavailable"

	// CacheModelMismatch means stored entries were produced by a different
	// embedding model. Treated as a miss by lookup, never surfaced to the
	// user.
	CacheModelMismatch CacheErrorKind = "model_mismatch"
)

// CacheError is a semantic cache failure.
type CacheError struct {
	Kind CacheErrorKind
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache: %s: %v", e.Kind, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
