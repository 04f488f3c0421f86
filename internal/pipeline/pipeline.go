// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one digest run: build the company and
// industry search queries for a selection, fetch news through the tool
// client, answer from the semantic cache where possible, summarize the
// misses, and merge both halves into a Digest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/digest-engine/internal/cache"
	"github.com/pdiddy/digest-engine/internal/infer"
	"github.com/pdiddy/digest-engine/internal/summarize"
	"github.com/pdiddy/digest-engine/pkg/types"
)

// State labels one orchestrator phase. Transitions are recorded in order on
// the Runner.
type State string

const (
	StateIdle              State = "idle"
	StateQueryBuilt        State = "query_built"
	StateToolFetching      State = "tool_fetching"
	StateCacheChecking     State = "cache_checking"
	StateCacheHit          State = "cache_hit"
	StateSummarizingMisses State = "summarizing_misses"
	StateMerging           State = "merging"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// RetryBaseDelay is the base for the exponential backoff between news fetch
// retries. Tests override it to avoid real sleeps.
var RetryBaseDelay = time.Second

const defaultRetryMax = 2

// NewsSearcher fetches articles for a query within a week window.
type NewsSearcher interface {
	SearchNews(ctx context.Context, query types.SearchQuery, weekStart, weekEnd time.Time) ([]types.Article, error)
}

// Summarizer batches per-article summarization.
type Summarizer interface {
	SummarizeMany(ctx context.Context, articles []types.Article, lang types.Language) ([]summarize.Result, []*types.SummarizeError)
}

// CacheStore is the read-through surface of the semantic cache.
type CacheStore interface {
	GetOrCompute(ctx context.Context, keyText, queryText string, compute cache.ComputeFunc) (*types.CacheEntry, bool, error)
}

// Runner executes digest runs. It is safe for sequential reuse; each Run
// resets the recorded transitions.
type Runner struct {
	chat       infer.Chat
	news       NewsSearcher
	summarizer Summarizer
	cache      CacheStore
	language   types.Language
	retryMax   int

	mu          sync.Mutex
	transitions []State
}

// NewRunner wires the orchestrator's collaborators. Progress lines are
// written to w during Run.
func NewRunner(chat infer.Chat, news NewsSearcher, summarizer Summarizer, cache CacheStore, cfg types.PipelineConfig) *Runner {
	language := cfg.Language
	if language == "" {
		language = types.LangZH
	}
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = 0
	} else if retryMax == 0 {
		retryMax = defaultRetryMax
	}
	return &Runner{
		chat:       chat,
		news:       news,
		summarizer: summarizer,
		cache:      cache,
		language:   language,
		retryMax:   retryMax,
	}
}

// Transitions returns the states entered by the most recent Run, in order.
func (r *Runner) Transitions() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.transitions))
	copy(out, r.transitions)
	return out
}

func (r *Runner) transition(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.transitions); n > 0 && r.transitions[n-1] == s {
		return
	}
	r.transitions = append(r.transitions, s)
}

// queryPath carries one half of the run (company or industry) through the
// stages.
type queryPath struct {
	query    types.SearchQuery
	articles []types.Article
	entry    *types.CacheEntry
	hit      bool
	err      error
}

// Run executes the pipeline for one selection and returns the merged
// digest. Progress lines go to w.
func (r *Runner) Run(ctx context.Context, sel types.Selection, w io.Writer) (*types.Digest, error) {
	r.mu.Lock()
	r.transitions = []State{StateIdle}
	r.mu.Unlock()

	paths, err := r.buildQueries(ctx, sel, w)
	if err != nil {
		r.transition(StateFailed)
		return nil, err
	}
	r.transition(StateQueryBuilt)

	r.transition(StateToolFetching)
	for i := range paths {
		paths[i].articles, paths[i].err = r.fetchNews(ctx, paths[i].query, sel)
		if paths[i].err != nil {
			fmt.Fprintf(w, "warning: %s news fetch failed: %v\n", paths[i].query.Mode, paths[i].err)
		}
	}
	if allFailed(paths) {
		r.transition(StateFailed)
		return nil, fmt.Errorf("every news path failed: %w", firstError(paths))
	}

	r.transition(StateCacheChecking)
	var summarized bool
	for i := range paths {
		p := &paths[i]
		if p.err != nil {
			continue
		}
		key := cacheKeyText(p.query, sel)
		queryText := strings.Join(p.query.Terms, " ")
		articles := p.articles

		p.entry, p.hit, p.err = r.cache.GetOrCompute(ctx, key, queryText,
			func(ctx context.Context) (string, float64, []types.Article, error) {
				r.transition(StateSummarizingMisses)
				summarized = true
				return r.summarizeQuery(ctx, articles, w)
			})
		if p.err != nil {
			fmt.Fprintf(w, "warning: %s path failed: %v\n", p.query.Mode, p.err)
			continue
		}
		if p.hit {
			fmt.Fprintf(w, "cache hit for %s query\n", p.query.Mode)
		}
	}
	if !summarized {
		r.transition(StateCacheHit)
	}
	if noEntries(paths) {
		r.transition(StateFailed)
		return nil, fmt.Errorf("every news path failed: %w", firstError(paths))
	}

	r.transition(StateMerging)
	digest := mergePaths(paths)
	r.transition(StateDone)
	return digest, nil
}

// buildQueries derives the company query and, when industry inference
// succeeds, the industry query. An inference failure skips the industry
// half rather than failing the run.
func (r *Runner) buildQueries(ctx context.Context, sel types.Selection, w io.Writer) ([]queryPath, error) {
	ticker := strings.ToUpper(strings.TrimSpace(sel.Ticker))
	if ticker == "" {
		return nil, errors.New("selection has no ticker")
	}

	company := strings.TrimSpace(sel.CompanyName)
	if company == "" {
		company = infer.CompanyName(ctx, r.chat, ticker, sel.Market)
	}

	terms := []string{ticker}
	if company != "" {
		terms = append(terms, company)
	}
	paths := []queryPath{{
		query: types.SearchQuery{Mode: types.ModeCompany, Terms: terms, Language: r.language},
	}}

	industry, err := infer.Industry(ctx, r.chat, ticker)
	if err != nil {
		fmt.Fprintf(w, "warning: industry inference failed, skipping industry news: %v\n", err)
		return paths, nil
	}
	paths = append(paths, queryPath{
		query: types.SearchQuery{Mode: types.ModeIndustry, Terms: []string{industry}, Language: r.language},
	})
	return paths, nil
}

// fetchNews calls the news tool, retrying unreachable-server failures with
// exponential backoff. Bad responses are not retried.
func (r *Runner) fetchNews(ctx context.Context, query types.SearchQuery, sel types.Selection) ([]types.Article, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retryMax; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		articles, err := r.news.SearchNews(ctx, query, sel.WeekStart, sel.WeekEnd)
		if err == nil {
			return articles, nil
		}
		lastErr = err

		var toolErr *types.ToolError
		if !errors.As(err, &toolErr) || toolErr.Kind != types.ToolUnreachable {
			return nil, err
		}
	}
	return nil, lastErr
}

// summarizeQuery turns one query's articles into the cached digest fields.
// Per-article failures are dropped; only a batch with zero survivors out of
// a non-empty input is an error.
func (r *Runner) summarizeQuery(ctx context.Context, articles []types.Article, w io.Writer) (string, float64, []types.Article, error) {
	if len(articles) == 0 {
		return "", 0, nil, nil
	}

	results, failures := r.summarizer.SummarizeMany(ctx, articles, r.language)
	for _, f := range failures {
		fmt.Fprintf(w, "warning: article skipped: %v\n", f)
	}
	if len(results) == 0 {
		return "", 0, nil, fmt.Errorf("all %d articles failed to summarize: %w", len(articles), failures[0])
	}

	summary, sentiment := summarize.ComposeDigest(r.language, results)
	kept := make([]types.Article, 0, len(results))
	for _, res := range results {
		kept = append(kept, res.Article)
	}
	return summary, sentiment, kept, nil
}

// cacheKeyText is the canonical embedded text for a (query, week) pair.
func cacheKeyText(query types.SearchQuery, sel types.Selection) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		query.Mode,
		strings.Join(query.Terms, " "),
		query.Language,
		sel.WeekStart.Format("2006-01-02"),
		sel.WeekEnd.Format("2006-01-02"),
	)
}

func mergePaths(paths []queryPath) *types.Digest {
	var digest types.Digest
	for _, p := range paths {
		if p.entry == nil {
			continue
		}
		switch p.query.Mode {
		case types.ModeCompany:
			digest.CompanySummary = p.entry.Summary
			digest.CompanySentiment = p.entry.Sentiment
			digest.Counts.Company = len(p.entry.Articles)
		case types.ModeIndustry:
			digest.IndustrySummary = p.entry.Summary
			digest.IndustrySentiment = p.entry.Sentiment
			digest.Counts.Industry = len(p.entry.Articles)
		}
	}
	return &digest
}

func allFailed(paths []queryPath) bool {
	for _, p := range paths {
		if p.err == nil {
			return false
		}
	}
	return true
}

func noEntries(paths []queryPath) bool {
	for _, p := range paths {
		if p.entry != nil {
			return false
		}
	}
	return true
}

func firstError(paths []queryPath) error {
	for _, p := range paths {
		if p.err != nil {
			return p.err
		}
	}
	return errors.New("no articles")
}
