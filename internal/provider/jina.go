// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/digest-engine/internal/httputil"
	"github.com/pdiddy/digest-engine/pkg/types"
)

// jinaAPIURL is the Jina embeddings endpoint. Package-level var for test
// substitution.
var jinaAPIURL = "https://api.jina.ai/v1/embeddings"

// jinaEmbedder produces embeddings via the Jina API, which speaks the same
// request shape as the OpenAI embeddings endpoint.
type jinaEmbedder struct {
	apiKey     string
	model      string
	maxRetries int
	client     *http.Client
}

func newJinaEmbedder(apiKey, model string, maxRetries int) *jinaEmbedder {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &jinaEmbedder{
		apiKey:     apiKey,
		model:      model,
		maxRetries: maxRetries,
		client:     httputil.NewClient(types.HTTPConfig{}),
	}
}

func (e *jinaEmbedder) Model() string { return e.model }

type jinaRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *jinaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(jinaRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, classify("embed", 0, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jinaAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, classify("embed", 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := httputil.DoWithRetry(ctx, e.client, req, e.maxRetries)
	if err != nil {
		return nil, classify("embed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, classify("embed", resp.StatusCode,
			fmt.Errorf("jina API returned %d: %s", resp.StatusCode, string(payload)))
	}

	var jResp jinaResponse
	if err := json.NewDecoder(resp.Body).Decode(&jResp); err != nil {
		return nil, classify("embed", 0, fmt.Errorf("decoding response: %w", err))
	}
	if len(jResp.Data) != len(texts) {
		return nil, classify("embed", 0,
			fmt.Errorf("got %d vectors for %d inputs", len(jResp.Data), len(texts)))
	}

	vectors := make([][]float32, len(jResp.Data))
	for i, d := range jResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

var _ embedBackend = (*jinaEmbedder)(nil)
