// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the digest-engine pipeline:
// the user Selection, derived search queries, fetched articles, cached
// summaries, and the final digest.
package types

import "time"

// Market identifies the exchange a ticker trades on.
type Market string

const (
	MarketUS Market = "US"
	MarketJP Market = "JP"
)

// Language is the target language for summaries and news search.
type Language string

const (
	LangZH Language = "zh"
	LangJA Language = "ja"
	LangEN Language = "en"
)

// SearchMode distinguishes company-directed from industry-directed news search.
type SearchMode string

const (
	ModeCompany  SearchMode = "company"
	ModeIndustry SearchMode = "industry"
)

// Selection identifies one user click: a security and a week on its chart.
// It is immutable once constructed.
type Selection struct {
	// Ticker is the exchange symbol (e.g. "AAPL", "7203").
	Ticker string `json:"ticker" yaml:"ticker"`

	// CompanyName is the company's display name used for company-mode search.
	// May be empty; the pipeline can infer it from the ticker.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// Market selects the exchange: US or JP.
	Market Market `json:"market" yaml:"market"`

	// WeekStart and WeekEnd bound the selected week, inclusive.
	WeekStart time.Time `json:"week_start" yaml:"week_start"`
	WeekEnd   time.Time `json:"week_end" yaml:"week_end"`
}

// SearchQuery holds the derived parameters sent to the news search tool.
type SearchQuery struct {
	// Mode is company or industry.
	Mode SearchMode `json:"mode" yaml:"mode"`

	// Terms are the search terms, joined with spaces for the tool call.
	Terms []string `json:"terms" yaml:"terms"`

	// Language is the target summary language.
	Language Language `json:"language" yaml:"language"`
}

// Article is one news item returned by the news search tool. Read-only
// downstream of the tool client.
type Article struct {
	// SourceURL links to the original article.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Title is the headline as published.
	Title string `json:"title" yaml:"title"`

	// PublishedAt is the publication timestamp. Zero when the source
	// omitted or mangled the date.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// RawText is the snippet or body text used as summarization input.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Language is the article's language as reported by the source.
	Language Language `json:"language" yaml:"language"`
}

// PricePoint is one (date, close) observation from the price series tool.
type PricePoint struct {
	Date  time.Time `json:"date" yaml:"date"`
	Close float64   `json:"close" yaml:"close"`
}

// CacheEntry is one persisted summarization result. Entries are append-only:
// a cache "update" is a new entry, never an in-place mutation, preserving
// point-in-time provenance.
type CacheEntry struct {
	// ID is the store-assigned row identifier.
	ID int64 `json:"id" yaml:"id"`

	// KeyText is the canonical text of the (query, week) pair that was
	// embedded for similarity lookup.
	KeyText string `json:"key_text" yaml:"key_text"`

	// QueryText is the query string sent to the news tool.
	QueryText string `json:"query_text" yaml:"query_text"`

	// EmbedModel names the embedding model that produced Embedding.
	// Entries from different models are never compared for similarity.
	EmbedModel string `json:"embed_model" yaml:"embed_model"`

	// Embedding is the key embedding vector.
	Embedding []float32 `json:"-" yaml:"-"`

	// Summary is exactly three sentences in the target language.
	Summary string `json:"summary" yaml:"summary"`

	// Sentiment is in [-1, 1].
	Sentiment float64 `json:"sentiment" yaml:"sentiment"`

	// Articles are the source articles the summary was built from.
	Articles []Article `json:"articles" yaml:"articles"`

	// CreatedAt is the entry creation time, also the similarity tie-break.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ArticleCounts reports how many articles fed each half of a digest.
type ArticleCounts struct {
	Company  int `json:"company" yaml:"company"`
	Industry int `json:"industry" yaml:"industry"`
}

// Digest is the merged pipeline result for one Selection. Either half may be
// empty when its news path found nothing or was skipped.
type Digest struct {
	CompanySummary    string        `json:"company_summary" yaml:"company_summary"`
	CompanySentiment  float64       `json:"company_sentiment" yaml:"company_sentiment"`
	IndustrySummary   string        `json:"industry_summary" yaml:"industry_summary"`
	IndustrySentiment float64       `json:"industry_sentiment" yaml:"industry_sentiment"`
	Counts            ArticleCounts `json:"article_counts" yaml:"article_counts"`
}
