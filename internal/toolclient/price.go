// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toolclient

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pdiddy/digest-engine/pkg/types"
)

// priceArgs is the payload for the fetch_price tool.
type priceArgs struct {
	Ticker string `json:"ticker"`
	Market string `json:"market"`
}

// pricePayload is the fetch_price response: rows of stringly-typed
// (date, close) pairs plus the upstream source URL.
type pricePayload struct {
	Rows []struct {
		Date  string `json:"date"`
		Close string `json:"close"`
	} `json:"rows"`
	Source string `json:"source"`
}

// FetchPriceSeries returns the ordered (date, close) series for a ticker.
// Rows with unparseable dates or closes are dropped rather than failing the
// call; an empty series is a valid result. The second return value is the
// upstream data source description.
func (c *Client) FetchPriceSeries(ctx context.Context, ticker string, market types.Market) ([]types.PricePoint, string, error) {
	var payload pricePayload
	args := priceArgs{Ticker: ticker, Market: string(market)}
	if err := c.invoke(ctx, c.cfg.PriceServerURL, priceTool, args, &payload); err != nil {
		return nil, "", err
	}

	points := make([]types.PricePoint, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		close, err := strconv.ParseFloat(row.Close, 64)
		if err != nil {
			continue
		}
		points = append(points, types.PricePoint{Date: date, Close: close})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points, payload.Source, nil
}
