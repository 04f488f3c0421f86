// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infer resolves the identity gaps in a user selection: ticker from
// company name, company name from ticker, and an industry label for the
// industry-mode news search. Well-known names resolve from static tables;
// everything else falls back to a single chat completion.
package infer

import (
	"context"
	"strings"

	"github.com/pdiddy/digest-engine/internal/provider"
	"github.com/pdiddy/digest-engine/pkg/types"
)

// Chat is the slice of the provider adapter this package needs.
type Chat interface {
	CompleteChat(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error)
}

// tickerByName covers companies with a single listing.
var tickerByName = map[string]string{
	"apple":     "AAPL",
	"alphabet":  "GOOGL",
	"google":    "GOOGL",
	"microsoft": "MSFT",
	"nvidia":    "NVDA",
	"tesla":     "TSLA",
	"amazon":    "AMZN",
	"meta":      "META",
	"toyota":    "TM",
	"sony":      "SONY",
	"ntt":       "NTT",
}

// tickerByNameAndMarket covers companies dual-listed in the US and Japan.
var tickerByNameAndMarket = map[string]map[types.Market]string{
	"toyota":   {types.MarketUS: "TM", types.MarketJP: "7203"},
	"sony":     {types.MarketUS: "SONY", types.MarketJP: "6758"},
	"ntt":      {types.MarketUS: "NTT", types.MarketJP: "9432"},
	"nintendo": {types.MarketUS: "NTDOY", types.MarketJP: "7974"},
	"honda":    {types.MarketUS: "HMC", types.MarketJP: "7267"},
	"softbank": {types.MarketUS: "SFTBY", types.MarketJP: "9984"},
}

// companyByTicker maps known tickers back to display names.
var companyByTicker = map[string]string{
	"aapl":  "Apple",
	"googl": "Alphabet",
	"goog":  "Alphabet",
	"msft":  "Microsoft",
	"nvda":  "NVIDIA",
	"tsla":  "Tesla",
	"amzn":  "Amazon",
	"meta":  "Meta",
	"7203":  "Toyota",
	"6758":  "Sony",
	"9432":  "NTT",
	"tm":    "Toyota",
	"sony":  "Sony",
	"ntt":   "NTT",
	"ntdoy": "Nintendo",
	"7974":  "Nintendo",
	"hmc":   "Honda",
	"7267":  "Honda",
	"sftby": "SoftBank",
	"9984":  "SoftBank",
}

// Ticker resolves a company name to its ticker on the given market. Unknown
// names go through one chat completion; on failure it returns "" so the
// caller can degrade gracefully.
func Ticker(ctx context.Context, chat Chat, companyName string, market types.Market) string {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return ""
	}
	key := strings.ToLower(name)

	if byMarket, ok := tickerByNameAndMarket[key]; ok {
		if symbol, ok := byMarket[market]; ok {
			return symbol
		}
		return byMarket[types.MarketUS]
	}
	if symbol, ok := tickerByName[key]; ok {
		return symbol
	}

	out, err := chat.CompleteChat(ctx, []provider.Message{
		{Role: "system", Content: "You map a company name to its stock ticker. " +
			"If a company is listed in both US and JP, return the ticker for the given Market. " +
			"For JP, return the numeric ticker only. For US, return the ticker only. " +
			"Return ONLY the ticker symbol. No punctuation, no exchange suffix."},
		{Role: "user", Content: "Company: " + name + "\nMarket: " + string(market) + "\nReturn only the ticker."},
	}, provider.ChatOptions{Temperature: 0})
	if err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

// CompanyName resolves a ticker to its display name, or "" when unknown and
// the model call fails.
func CompanyName(ctx context.Context, chat Chat, ticker string, market types.Market) string {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return ""
	}
	if name, ok := companyByTicker[strings.ToLower(symbol)]; ok {
		return name
	}

	out, err := chat.CompleteChat(ctx, []provider.Message{
		{Role: "system", Content: "You map a stock ticker to its company name. " +
			"Return ONLY the company name. No extra text."},
		{Role: "user", Content: "Ticker: " + symbol + "\nMarket: " + string(market) + "\nReturn only the company name."},
	}, provider.ChatOptions{Temperature: 0})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// NormalizeTicker maps a ticker onto the given market's listing for the same
// company, so a US symbol clicked on a JP chart resolves to the JP code.
// Unknown tickers pass through unchanged.
func NormalizeTicker(ctx context.Context, chat Chat, ticker string, market types.Market) string {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return ""
	}
	company, ok := companyByTicker[strings.ToLower(symbol)]
	if !ok {
		return symbol
	}
	if mapped := Ticker(ctx, chat, company, market); mapped != "" {
		return mapped
	}
	return symbol
}
