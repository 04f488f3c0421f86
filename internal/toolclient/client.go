// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolclient is a typed request/response layer over the two remote
// data-fetch tool servers (price series, news search). It normalizes
// transport and payload failures into ToolError kinds and never retries;
// retry policy belongs to the orchestrator.
package toolclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/digest-engine/internal/httputil"
	"github.com/pdiddy/digest-engine/pkg/types"
)

const (
	priceTool = "fetch_price"
	newsTool  = "search_news"
)

// Client invokes tools on the configured price and news servers.
type Client struct {
	cfg        types.ToolConfig
	httpClient *http.Client
}

// New builds a tool client from configuration.
func New(cfg types.ToolConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httputil.NewClient(cfg.HTTPConfig),
	}
}

// callRequest is the tool-invocation envelope sent to a tool server.
type callRequest struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// callResponse is the tool-invocation envelope returned by a tool server.
// Each content block of type "text" carries a JSON-encoded payload.
type callResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// invoke posts one tool call and decodes the first text block into out.
func (c *Client) invoke(ctx context.Context, baseURL, tool string, args, out any) error {
	body, err := json.Marshal(callRequest{Name: tool, Arguments: args})
	if err != nil {
		return &types.ToolError{Kind: types.ToolBadResponse, Tool: tool,
			Err: fmt.Errorf("marshaling arguments: %w", err)}
	}

	url := strings.TrimSuffix(baseURL, "/") + "/tools/call"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &types.ToolError{Kind: types.ToolBadResponse, Tool: tool,
			Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.ToolError{Kind: types.ToolUnreachable, Tool: tool, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return &types.ToolError{Kind: types.ToolBadResponse, Tool: tool,
			Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, truncate(string(payload), 200))}
	}

	var env callResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &types.ToolError{Kind: types.ToolBadResponse, Tool: tool,
			Err: fmt.Errorf("decoding envelope: %w", err)}
	}

	text, ok := firstText(env)
	if !ok {
		return &types.ToolError{Kind: types.ToolBadResponse, Tool: tool,
			Err: fmt.Errorf("no text content in response")}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &types.ToolError{Kind: types.ToolBadResponse, Tool: tool,
			Err: fmt.Errorf("decoding payload: %w", err)}
	}
	return nil
}

func firstText(env callResponse) (string, bool) {
	for _, block := range env.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
