// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider gives the pipeline a uniform call surface over
// heterogeneous chat-completion and text-embedding backends. The backend is
// selected once from configuration; callers never see per-backend
// differences.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/pdiddy/digest-engine/pkg/types"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// ChatOptions tunes a single chat-completion call.
type ChatOptions struct {
	// Temperature is passed through to the backend. The pipeline uses 0
	// everywhere for reproducible output.
	Temperature float64
}

// Client is the capability surface the rest of the pipeline depends on.
type Client interface {
	// CompleteChat sends the conversation and returns the assistant text.
	CompleteChat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// Embed returns one fixed-length vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ChatModel and EmbedModel name the configured models. The cache
	// records EmbedModel next to every vector it stores.
	ChatModel() string
	EmbedModel() string
}

// chatBackend completes chat conversations for one provider.
type chatBackend interface {
	Complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
	Model() string
}

// embedBackend produces embedding vectors for one provider.
type embedBackend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// client pairs one chat backend with one embedding backend.
type client struct {
	chat  chatBackend
	embed embedBackend
}

// openAICompatBaseURLs maps OpenAI-compatible backends to their endpoints.
// An empty value means the SDK default (api.openai.com).
var openAICompatBaseURLs = map[types.ProviderBackend]string{
	types.BackendOpenAI: "",
	types.BackendGroq:   "https://api.groq.com/openai/v1",
	types.BackendXAI:    "https://api.x.ai/v1",
	types.BackendQwen:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
}

// New builds the provider adapter from configuration. It is called once at
// startup; the returned Client is passed explicitly into the orchestrator.
func New(cfg types.ProviderConfig) (Client, error) {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	var chat chatBackend
	switch cfg.ChatBackend {
	case types.BackendAnthropic:
		chat = newAnthropicChat(cfg.ChatAPIKey, chatModel)
	default:
		baseURL, ok := openAICompatBaseURLs[cfg.ChatBackend]
		if !ok {
			return nil, fmt.Errorf("unknown chat backend %q", cfg.ChatBackend)
		}
		chat = newOpenAIChat(cfg.ChatAPIKey, chatModel, baseURL)
	}

	var embed embedBackend
	switch cfg.EmbedBackend {
	case types.BackendJina:
		embed = newJinaEmbedder(cfg.EmbedAPIKey, embedModel, cfg.MaxRetries)
	case types.BackendOpenAI, "":
		embed = newOpenAIEmbedder(cfg.EmbedAPIKey, embedModel)
	default:
		return nil, fmt.Errorf("unknown embed backend %q", cfg.EmbedBackend)
	}

	return &client{chat: chat, embed: embed}, nil
}

func (c *client) CompleteChat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	return c.chat.Complete(ctx, messages, opts)
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed.Embed(ctx, texts)
}

func (c *client) ChatModel() string  { return c.chat.Model() }
func (c *client) EmbedModel() string { return c.embed.Model() }

// classify normalizes a backend failure into a ProviderError. statusCode is
// the HTTP status when known, or 0.
//
// The taxonomy distinguishes failures by retry semantics, not transport
// detail: any 5xx counts as ProviderTimeout because a transient server error
// retries with backoff exactly like a deadline miss. The wrapped error keeps
// the original status for logs.
func classify(op string, statusCode int, err error) error {
	kind := types.ProviderMalformedResponse

	switch {
	case statusCode == 401 || statusCode == 403:
		kind = types.ProviderAuth
	case statusCode == 429:
		kind = types.ProviderRateLimit
	case statusCode >= 500:
		kind = types.ProviderTimeout
	case isTimeout(err):
		kind = types.ProviderTimeout
	}

	return &types.ProviderError{Kind: kind, Op: op, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
