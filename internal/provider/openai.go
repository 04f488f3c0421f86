// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIChat completes chat conversations against api.openai.com or any
// OpenAI-compatible endpoint (groq, xai, qwen) selected via base URL.
type openAIChat struct {
	client openai.Client
	model  string
}

func newOpenAIChat(apiKey, model, baseURL string) *openAIChat {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIChat{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *openAIChat) Model() string { return c.model }

func (c *openAIChat) Complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(opts.Temperature),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify("chat", openAIStatus(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", classify("chat", 0, fmt.Errorf("no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIEmbedder produces embeddings via the OpenAI embeddings endpoint.
type openAIEmbedder struct {
	client openai.Client
	model  string
}

func newOpenAIEmbedder(apiKey, model string) *openAIEmbedder {
	return &openAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (e *openAIEmbedder) Model() string { return e.model }

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, classify("embed", openAIStatus(err), err)
	}
	if len(resp.Data) != len(texts) {
		return nil, classify("embed", 0,
			fmt.Errorf("got %d vectors for %d inputs", len(resp.Data), len(texts)))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// openAIStatus extracts the HTTP status from an SDK error, or 0.
func openAIStatus(err error) int {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode
	}
	return 0
}

var _ chatBackend = (*openAIChat)(nil)
var _ embedBackend = (*openAIEmbedder)(nil)
