package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"TouchSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// RESTFetcher implements Fetcher against a self-hosted bar service.
//
//	GET {base}/api/v1/bars?symbol=&interval=&range=  -> [restBar]
//	GET {base}/api/v1/info?symbol=                   -> restInfo
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of one bar. Prices may be null.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    float64  `json:"volume"`
}

func (b restBar) complete() bool {
	return b.Open != nil && b.High != nil && b.Low != nil && b.Close != nil
}

type restInfo struct {
	Symbol    string              `json:"symbol"`
	MarketCap decimal.NullDecimal `json:"market_cap"`
}

func (f *RESTFetcher) FetchSeries(ctx context.Context, symbol, interval, lookback string) (model.Series, error) {
	series := model.Series{Symbol: symbol, Interval: interval}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("range", lookback)

	var raw []restBar
	if err := f.getJSON(ctx, "/api/v1/bars?"+q.Encode(), &raw); err != nil {
		return series, fmt.Errorf("fetch bars: %w", err)
	}
	if len(raw) == 0 {
		return series, fmt.Errorf("fetch bars %s %s: %w", symbol, interval, ErrNoData)
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for _, rb := range raw {
		if !rb.complete() {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0),
			Open:   *rb.Open,
			High:   *rb.High,
			Low:    *rb.Low,
			Close:  *rb.Close,
			Volume: rb.Volume,
		})
	}
	series.Bars = normalizeBars(bars)
	return series, nil
}

func (f *RESTFetcher) FetchInfo(ctx context.Context, symbol string) (model.TickerInfo, error) {
	var ri restInfo
	if err := f.getJSON(ctx, "/api/v1/info?symbol="+url.QueryEscape(symbol), &ri); err != nil {
		return model.TickerInfo{Symbol: symbol}, fmt.Errorf("fetch info: %w", err)
	}
	return model.TickerInfo{Symbol: symbol, MarketCap: ri.MarketCap}, nil
}

func (f *RESTFetcher) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
