// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package infer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/digest-engine/internal/provider"
)

// generalIndustry is the label used when no better inference is available.
const generalIndustry = "General Industry"

// industryByTicker covers the tickers seen most often; everything else goes
// through the model.
var industryByTicker = map[string]string{
	"aapl": "Consumer Electronics",
	"msft": "Software",
	"nvda": "Semiconductors",
	"tsla": "Automobiles",
	"amzn": "E-Commerce",
	"goog": "Internet Services",
	"meta": "Social Media",
	"7203": "Automobiles",
	"6758": "Consumer Electronics",
	"9432": "Telecom",
}

// Industry resolves a ticker to a short English industry label. When the
// ticker is unknown and the model call fails it returns the "General
// Industry" placeholder along with the error, so callers can choose between
// the degraded label and skipping industry handling entirely.
func Industry(ctx context.Context, chat Chat, ticker string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(ticker))
	if label, ok := industryByTicker[normalized]; ok {
		return label, nil
	}

	out, err := chat.CompleteChat(ctx, []provider.Message{
		{Role: "system", Content: "You map a ticker to a short industry label. Reply with 1-3 English words only."},
		{Role: "user", Content: "Ticker: " + ticker + "\nReturn only the industry label."},
	}, provider.ChatOptions{Temperature: 0})
	if err != nil {
		return generalIndustry, fmt.Errorf("inferring industry for %s: %w", ticker, err)
	}
	if label := strings.TrimSpace(out); label != "" {
		return label, nil
	}
	return generalIndustry, fmt.Errorf("inferring industry for %s: empty model reply", ticker)
}
