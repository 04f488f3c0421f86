// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns fetched news articles into per-article summaries
// with sentiment scores, fanning the work out over a bounded pool of chat
// completion calls.
package summarize

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/digest-engine/internal/provider"
	"github.com/pdiddy/digest-engine/pkg/types"
)

const defaultWorkers = 6

// Chat is the slice of the provider adapter the pool needs.
type Chat interface {
	CompleteChat(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error)
}

// Result is one successfully summarized article. Sentences holds exactly
// three sentences in the target language; Sentiment is in [-1, 1].
type Result struct {
	Article   types.Article
	Sentences []string
	Sentiment float64
}

// Pool summarizes batches of articles with bounded concurrency.
type Pool struct {
	chat    Chat
	workers int
}

// NewPool builds a summarizer pool over the given chat client.
func NewPool(chat Chat, cfg types.SummarizerConfig) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pool{chat: chat, workers: workers}
}

// SummarizeMany summarizes every article concurrently, at most the configured
// number of calls in flight at once. A failed article is reported in the
// second return value and excluded from the results; it never aborts the
// batch. Results preserve the input article order.
func (p *Pool) SummarizeMany(ctx context.Context, articles []types.Article, lang types.Language) ([]Result, []*types.SummarizeError) {
	slots := make([]*Result, len(articles))
	errSlots := make([]*types.SummarizeError, len(articles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, article := range articles {
		g.Go(func() error {
			res, err := p.summarizeOne(ctx, article, lang)
			if err != nil {
				errSlots[i] = &types.SummarizeError{Article: article, Err: err}
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	g.Wait()

	var results []Result
	var failures []*types.SummarizeError
	for i := range articles {
		if slots[i] != nil {
			results = append(results, *slots[i])
		}
		if errSlots[i] != nil {
			failures = append(failures, errSlots[i])
		}
	}
	return results, failures
}

func (p *Pool) summarizeOne(ctx context.Context, article types.Article, lang types.Language) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt(article, lang)
	if err != nil {
		return nil, err
	}

	content, err := p.chat.CompleteChat(ctx, []provider.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, provider.ChatOptions{Temperature: 0})
	if err != nil {
		return nil, err
	}

	resp, err := parseResponse(content)
	if err != nil {
		return nil, err
	}

	sentences, err := normalizeSentences(resp.Summary)
	if err != nil {
		return nil, err
	}

	return &Result{
		Article:   article,
		Sentences: sentences,
		Sentiment: clampSentiment(resp.Sentiment),
	}, nil
}

// ComposeDigest folds per-article results into one query-level summary and
// sentiment without another model call: the first three sentences across
// results in order, and the mean of the per-article sentiment scores.
func ComposeDigest(lang types.Language, results []Result) (string, float64) {
	if len(results) == 0 {
		return "", 0
	}

	var sentences []string
	var total float64
	for _, r := range results {
		sentences = append(sentences, r.Sentences...)
		total += r.Sentiment
	}
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}

	return joinSentences(lang, sentences), clampSentiment(total / float64(len(results)))
}

// joinSentences concatenates sentences the way the target language is
// written: no separator for Chinese and Japanese, a space for English.
func joinSentences(lang types.Language, sentences []string) string {
	sep := " "
	if lang == types.LangZH || lang == types.LangJA {
		sep = ""
	}
	return strings.Join(sentences, sep)
}
