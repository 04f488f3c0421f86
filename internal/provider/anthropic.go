// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicChat completes chat conversations via the Anthropic Messages API.
// Anthropic exposes no embedding endpoint, so this backend only ever pairs
// with an OpenAI-compatible or Jina embedder.
type anthropicChat struct {
	client anthropic.Client
	model  string
}

func newAnthropicChat(apiKey, model string) *anthropicChat {
	return &anthropicChat{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *anthropicChat) Model() string { return c.model }

func (c *anthropicChat) Complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(opts.Temperature),
	}

	// The Messages API takes system text separately from the turn list.
	var userParts []string
	for _, m := range messages {
		if m.Role == "system" {
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
			continue
		}
		userParts = append(userParts, m.Content)
	}
	params.Messages = []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(strings.Join(userParts, "\n\n"))),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify("chat", anthropicStatus(err), err)
	}
	if len(resp.Content) == 0 {
		return "", classify("chat", 0, fmt.Errorf("no content blocks in response"))
	}
	return resp.Content[0].Text, nil
}

// anthropicStatus extracts the HTTP status from an SDK error, or 0.
func anthropicStatus(err error) int {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode
	}
	return 0
}

var _ chatBackend = (*anthropicChat)(nil)
