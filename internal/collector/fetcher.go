package collector

import (
	"context"
	"errors"

	"TouchSentinel/internal/model"
)

// ErrNoData is returned when a provider answers without any bars or quote.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchSeries returns bars for symbol at interval covering lookback
	// (a provider range such as "5y" or "730d"), oldest first.
	FetchSeries(ctx context.Context, symbol, interval, lookback string) (model.Series, error)
	// FetchInfo returns reference data; a missing market cap is not an error.
	FetchInfo(ctx context.Context, symbol string) (model.TickerInfo, error)
	Name() string
}

// New returns the REST fetcher when baseURL is set, otherwise Yahoo Finance.
func New(baseURL, apiKey, proxyURL string) Fetcher {
	if baseURL != "" {
		return NewRESTFetcher(baseURL, apiKey, proxyURL)
	}
	return NewYahooFetcher(proxyURL)
}
