// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/digest-engine/internal/provider"
	"github.com/pdiddy/digest-engine/pkg/types"
)

// fakeChat answers with whatever respond returns for the user prompt.
type fakeChat struct {
	respond func(prompt string) (string, error)
}

func (f *fakeChat) CompleteChat(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var prompt string
	for _, m := range messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}
	return f.respond(prompt)
}

func jsonReply(s1, s2, s3 string, sentiment float64) string {
	return fmt.Sprintf(`{"summary": [%q, %q, %q], "sentiment": %g}`, s1, s2, s3, sentiment)
}

func articleNamed(title string) types.Article {
	return types.Article{
		SourceURL: "https://example.com/" + title,
		Title:     title,
		RawText:   "snippet for " + title,
		Language:  types.LangEN,
	}
}

func TestSummarizeManyAllSucceed(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		return jsonReply("First.", "Second.", "Third.", 0.4), nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{Workers: 2})

	articles := []types.Article{articleNamed("a"), articleNamed("b"), articleNamed("c")}
	results, failures := pool.SummarizeMany(context.Background(), articles, types.LangEN)

	require.Empty(t, failures)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, articles[i].Title, r.Article.Title, "results keep input order")
		assert.Len(t, r.Sentences, 3)
		assert.InDelta(t, 0.4, r.Sentiment, 1e-9)
	}
}

func TestSummarizeManyFailuresDoNotAbortBatch(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "bad-backend"):
			return "", errors.New("backend down")
		case strings.Contains(prompt, "bad-json"):
			return "not json at all", nil
		default:
			return jsonReply("One.", "Two.", "Three.", -0.2), nil
		}
	}}
	pool := NewPool(chat, types.SummarizerConfig{})

	articles := []types.Article{
		articleNamed("good-1"),
		articleNamed("bad-backend"),
		articleNamed("good-2"),
		articleNamed("bad-json"),
	}
	results, failures := pool.SummarizeMany(context.Background(), articles, types.LangZH)

	require.Len(t, results, 2)
	assert.Equal(t, "good-1", results[0].Article.Title)
	assert.Equal(t, "good-2", results[1].Article.Title)

	require.Len(t, failures, 2)
	assert.Equal(t, "bad-backend", failures[0].Article.Title)
	assert.Equal(t, "bad-json", failures[1].Article.Title)
}

func TestSentimentClampedToRange(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		return jsonReply("A.", "B.", "C.", 1.7), nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{})

	results, failures := pool.SummarizeMany(context.Background(),
		[]types.Article{articleNamed("a")}, types.LangEN)
	require.Empty(t, failures)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Sentiment)
}

func TestFencedResponseParsed(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		return "```json\n" + jsonReply("甲。", "乙。", "丙。", 0.1) + "\n```", nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{})

	results, failures := pool.SummarizeMany(context.Background(),
		[]types.Article{articleNamed("a")}, types.LangZH)
	require.Empty(t, failures)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"甲。", "乙。", "丙。"}, results[0].Sentences)
}

func TestPackedSentencesResplit(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		return `{"summary": ["First point. Second point. Third point."], "sentiment": 0}`, nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{})

	results, failures := pool.SummarizeMany(context.Background(),
		[]types.Article{articleNamed("a")}, types.LangEN)
	require.Empty(t, failures)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"First point.", "Second point.", "Third point."}, results[0].Sentences)
}

func TestTooFewSentencesIsAFailure(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		return `{"summary": ["Only one sentence."], "sentiment": 0}`, nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{})

	results, failures := pool.SummarizeMany(context.Background(),
		[]types.Article{articleNamed("a")}, types.LangEN)
	assert.Empty(t, results)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error(), "expected 3 sentences")
}

func TestCancelledContextFailsEveryArticle(t *testing.T) {
	chat := &fakeChat{respond: func(prompt string) (string, error) {
		return jsonReply("A.", "B.", "C.", 0), nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, failures := pool.SummarizeMany(ctx,
		[]types.Article{articleNamed("a"), articleNamed("b")}, types.LangEN)
	assert.Empty(t, results)
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.ErrorIs(t, f, context.Canceled)
	}
}

func TestConcurrencyBoundedByWorkers(t *testing.T) {
	var inFlight, peak int32
	var mu sync.Mutex

	chat := &fakeChat{respond: func(prompt string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return jsonReply("A.", "B.", "C.", 0), nil
	}}
	pool := NewPool(chat, types.SummarizerConfig{Workers: 2})

	articles := make([]types.Article, 8)
	for i := range articles {
		articles[i] = articleNamed(fmt.Sprintf("a%d", i))
	}

	results, failures := pool.SummarizeMany(context.Background(), articles, types.LangEN)
	require.Empty(t, failures)
	assert.Len(t, results, 8)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int32(2))
}

func TestComposeDigest(t *testing.T) {
	results := []Result{
		{Sentences: []string{"一句。", "两句。", "三句。"}, Sentiment: 0.8},
		{Sentences: []string{"四句。", "五句。", "六句。"}, Sentiment: -0.2},
	}

	summary, sentiment := ComposeDigest(types.LangZH, results)
	assert.Equal(t, "一句。两句。三句。", summary)
	assert.InDelta(t, 0.3, sentiment, 1e-9)
}

func TestComposeDigestEnglishSpacing(t *testing.T) {
	results := []Result{
		{Sentences: []string{"One.", "Two.", "Three."}, Sentiment: 0},
	}
	summary, _ := ComposeDigest(types.LangEN, results)
	assert.Equal(t, "One. Two. Three.", summary)
}

func TestComposeDigestEmpty(t *testing.T) {
	summary, sentiment := ComposeDigest(types.LangZH, nil)
	assert.Empty(t, summary)
	assert.Zero(t, sentiment)
}
