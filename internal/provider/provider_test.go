// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/digest-engine/internal/httputil"
	"github.com/pdiddy/digest-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func TestNewSelectsBackends(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.ProviderConfig
		ok   bool
	}{
		{"openai defaults", types.ProviderConfig{ChatBackend: types.BackendOpenAI}, true},
		{"groq chat", types.ProviderConfig{ChatBackend: types.BackendGroq}, true},
		{"anthropic chat jina embed", types.ProviderConfig{
			ChatBackend: types.BackendAnthropic, EmbedBackend: types.BackendJina}, true},
		{"unknown chat", types.ProviderConfig{ChatBackend: "cohere"}, false},
		{"unknown embed", types.ProviderConfig{
			ChatBackend: types.BackendOpenAI, EmbedBackend: "voyage"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, c.ChatModel())
			assert.NotEmpty(t, c.EmbedModel())
		})
	}
}

func TestNewAppliesModelDefaults(t *testing.T) {
	c, err := New(types.ProviderConfig{ChatBackend: types.BackendOpenAI})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.ChatModel())
	assert.Equal(t, "text-embedding-3-small", c.EmbedModel())
}

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		status int
		err    error
		want   types.ProviderErrorKind
	}{
		{401, fmt.Errorf("denied"), types.ProviderAuth},
		{403, fmt.Errorf("denied"), types.ProviderAuth},
		{429, fmt.Errorf("slow down"), types.ProviderRateLimit},
		{503, fmt.Errorf("unavailable"), types.ProviderTimeout},
		{0, context.DeadlineExceeded, types.ProviderTimeout},
		{0, fmt.Errorf("bad json"), types.ProviderMalformedResponse},
	}

	for _, tt := range tests {
		err := classify("chat", tt.status, tt.err)
		var perr *types.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, tt.want, perr.Kind, "status=%d err=%v", tt.status, tt.err)
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	retryable := &types.ProviderError{Kind: types.ProviderRateLimit}
	assert.True(t, retryable.Retryable())
	fatal := &types.ProviderError{Kind: types.ProviderAuth}
	assert.False(t, fatal.Retryable())
}

func TestEmbedEmptyInputSkipsNetwork(t *testing.T) {
	c, err := New(types.ProviderConfig{ChatBackend: types.BackendOpenAI})
	require.NoError(t, err)

	vectors, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestJinaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req jinaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := jinaResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{0.1, 0.2, 0.3}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	old := jinaAPIURL
	jinaAPIURL = srv.URL
	defer func() { jinaAPIURL = old }()

	e := newJinaEmbedder("test-key", "jina-embeddings-v3", 1)
	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
}

func TestJinaEmbedderClientHasTimeout(t *testing.T) {
	// A hung embedding server must not block a digest run forever.
	e := newJinaEmbedder("k", "jina-embeddings-v3", 1)
	assert.Positive(t, e.client.Timeout)
}

func TestJinaEmbedderAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	old := jinaAPIURL
	jinaAPIURL = srv.URL
	defer func() { jinaAPIURL = old }()

	e := newJinaEmbedder("bad-key", "jina-embeddings-v3", 1)
	_, err := e.Embed(context.Background(), []string{"a"})

	var perr *types.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, types.ProviderAuth, perr.Kind)
	assert.False(t, perr.Retryable())
}

func TestJinaEmbedderVectorCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jinaResponse{})
	}))
	defer srv.Close()

	old := jinaAPIURL
	jinaAPIURL = srv.URL
	defer func() { jinaAPIURL = old }()

	e := newJinaEmbedder("k", "jina-embeddings-v3", 1)
	_, err := e.Embed(context.Background(), []string{"a"})

	var perr *types.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, types.ProviderMalformedResponse, perr.Kind)
}
