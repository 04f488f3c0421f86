// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toolclient

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/digest-engine/pkg/types"
)

// newsArgs is the payload for the search_news tool.
type newsArgs struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	Languages []string `json:"languages"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// newsItem is one article as returned by the news tool server.
type newsItem struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Snippet    string `json:"snippet"`
	Language   string `json:"language"`
	SourceType string `json:"source_type"`
	Published  string `json:"published"`
}

// publishedFormats are the timestamp layouts news sources emit. RSS pubDate
// is RFC 1123 with or without a numeric zone.
var publishedFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

// SearchNews queries the news tool server for articles matching the query
// within the week window. An empty result is a valid "no news this week"
// answer, not an error.
func (c *Client) SearchNews(ctx context.Context, query types.SearchQuery, weekStart, weekEnd time.Time) ([]types.Article, error) {
	args := newsArgs{
		Query:     strings.Join(query.Terms, " "),
		Limit:     c.newsLimit(),
		Languages: []string{string(types.LangZH), string(types.LangJA), string(types.LangEN)},
		StartDate: weekStart.Format("2006-01-02"),
		EndDate:   weekEnd.Format("2006-01-02"),
	}

	var items []newsItem
	if err := c.invoke(ctx, c.cfg.NewsServerURL, newsTool, args, &items); err != nil {
		return nil, err
	}

	articles := make([]types.Article, 0, len(items))
	for _, item := range items {
		if item.Title == "" && item.Link == "" {
			continue
		}
		articles = append(articles, types.Article{
			SourceURL:   item.Link,
			Title:       item.Title,
			PublishedAt: parsePublished(item.Published),
			RawText:     item.Snippet,
			Language:    types.Language(item.Language),
		})
	}
	return articles, nil
}

func (c *Client) newsLimit() int {
	if c.cfg.NewsLimit > 0 {
		return c.cfg.NewsLimit
	}
	return 10
}

// parsePublished tries the known timestamp layouts; a mangled date yields
// the zero time rather than dropping the article.
func parsePublished(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range publishedFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
