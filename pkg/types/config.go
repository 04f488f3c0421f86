// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "digest-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderBackend identifies a chat or embedding backend implementation.
type ProviderBackend string

const (
	BackendOpenAI    ProviderBackend = "openai"
	BackendGroq      ProviderBackend = "groq"
	BackendXAI       ProviderBackend = "xai"
	BackendQwen      ProviderBackend = "qwen"
	BackendAnthropic ProviderBackend = "anthropic"
	BackendJina      ProviderBackend = "jina"
)

// ProviderConfig selects the chat and embedding backends. Selection happens
// once at startup; callers of the adapter never see backend identity.
type ProviderConfig struct {
	// ChatBackend selects the chat-completion implementation:
	// openai, groq, xai, qwen, or anthropic.
	ChatBackend ProviderBackend `json:"chat_backend" yaml:"chat_backend"`

	// ChatModel is the chat model identifier (default "gpt-4o-mini").
	ChatModel string `json:"chat_model" yaml:"chat_model"`

	// ChatAPIKey authenticates chat calls.
	ChatAPIKey string `json:"chat_api_key,omitempty" yaml:"chat_api_key,omitempty"`

	// EmbedBackend selects the embedding implementation: openai or jina.
	// Anthropic has no embedding endpoint, so an anthropic chat selection
	// pairs with one of these.
	EmbedBackend ProviderBackend `json:"embed_backend" yaml:"embed_backend"`

	// EmbedModel is the embedding model identifier
	// (default "text-embedding-3-small").
	EmbedModel string `json:"embed_model" yaml:"embed_model"`

	// EmbedAPIKey authenticates embedding calls.
	EmbedAPIKey string `json:"embed_api_key,omitempty" yaml:"embed_api_key,omitempty"`

	// MaxRetries bounds retries on rate_limit and timeout failures
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ToolConfig locates the external tool servers.
type ToolConfig struct {
	HTTPConfig `yaml:",inline"`

	// PriceServerURL is the base URL of the price series tool server.
	PriceServerURL string `json:"price_server_url" yaml:"price_server_url"`

	// NewsServerURL is the base URL of the news search tool server.
	NewsServerURL string `json:"news_server_url" yaml:"news_server_url"`

	// NewsLimit caps articles per news search (default 10).
	NewsLimit int `json:"news_limit" yaml:"news_limit"`
}

// CacheConfig holds settings for the semantic cache store.
type CacheConfig struct {
	// Dir is the directory holding the cache database (default "data/cache").
	Dir string `json:"dir" yaml:"dir"`

	// SimilarityThreshold is the minimum cosine similarity for a lookup
	// hit (default 0.62).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
}

// SummarizerConfig holds settings for the summarizer pool.
type SummarizerConfig struct {
	// Workers is the fixed concurrency budget for article summarization
	// (default 6).
	Workers int `json:"workers" yaml:"workers"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Provider   ProviderConfig   `json:"provider" yaml:"provider"`
	Tools      ToolConfig       `json:"tools" yaml:"tools"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer"`

	// RetryMax bounds orchestrator retries on unreachable tool servers
	// (default 2).
	RetryMax int `json:"retry_max" yaml:"retry_max"`

	// Language is the target summary language (default "zh").
	Language Language `json:"language" yaml:"language"`
}
