package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"TouchSentinel/internal/model"

	"github.com/shopspring/decimal"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
//
// The quote endpoint needs a session cookie plus a matching crumb. Both are
// obtained on the first FetchInfo and reused until Yahoo rejects them.
type YahooFetcher struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client

	mu    sync.Mutex
	crumb string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &YahooFetcher{
		BaseURL:   yahooBaseURL,
		CookieURL: yahooCookieURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
			Jar:       jar,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// yahooQuote is the response structure from the Yahoo Finance quote API.
type yahooQuote struct {
	QuoteResponse struct {
		Result []struct {
			Symbol    string              `json:"symbol"`
			MarketCap decimal.NullDecimal `json:"marketCap"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// statusError is returned for any non-200 response.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo: status %d, body: %s", e.Code, e.Body)
}

// at returns vals[i] and whether it holds a number; null and missing
// entries report false.
func at(vals []interface{}, i int) (float64, bool) {
	if i >= len(vals) {
		return 0, false
	}
	n, ok := vals[i].(float64)
	return n, ok
}

func (f *YahooFetcher) do(ctx context.Context, u string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	return resp, body, nil
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	resp, body, err := f.do(ctx, u)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// session returns the cached crumb, performing the cookie and crumb
// handshake when there is none yet.
func (f *YahooFetcher) session(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" {
		return f.crumb, nil
	}

	// fc.yahoo.com answers 404 but still sets the session cookie.
	if _, _, err := f.do(ctx, f.CookieURL); err != nil {
		return "", fmt.Errorf("yahoo cookie: %w", err)
	}
	body, err := f.get(ctx, f.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", fmt.Errorf("yahoo crumb: empty response")
	}
	f.crumb = crumb
	return crumb, nil
}

func (f *YahooFetcher) resetSession() {
	f.mu.Lock()
	f.crumb = ""
	f.mu.Unlock()
}

// FetchSeries downloads a chart for symbol at interval over the lookback range.
func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol, interval, lookback string) (model.Series, error) {
	series := model.Series{Symbol: symbol, Interval: interval}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(lookback))

	body, err := f.get(ctx, u)
	if err != nil {
		return series, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return series, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return series, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return series, fmt.Errorf("yahoo %s %s: %w", symbol, interval, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // holidays and partially reported bars
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	series.Bars = normalizeBars(bars)
	return series, nil
}

// FetchInfo looks up the market capitalization of symbol. A rejected
// crumb is refreshed once before giving up.
func (f *YahooFetcher) FetchInfo(ctx context.Context, symbol string) (model.TickerInfo, error) {
	info := model.TickerInfo{Symbol: symbol}

	body, err := f.quote(ctx, symbol)
	var se *statusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		f.resetSession()
		body, err = f.quote(ctx, symbol)
	}
	if err != nil {
		return info, err
	}

	var quote yahooQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return info, fmt.Errorf("yahoo decode quote: %w", err)
	}
	if quote.QuoteResponse.Error != nil {
		return info, fmt.Errorf("yahoo api error: %s", quote.QuoteResponse.Error.Description)
	}
	if len(quote.QuoteResponse.Result) == 0 {
		return info, fmt.Errorf("yahoo quote %s: %w", symbol, ErrNoData)
	}
	info.MarketCap = quote.QuoteResponse.Result[0].MarketCap
	return info, nil
}

func (f *YahooFetcher) quote(ctx context.Context, symbol string) ([]byte, error) {
	crumb, err := f.session(ctx)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s&crumb=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(crumb))
	return f.get(ctx, u)
}

// normalizeBars sorts bars chronologically and keeps the last bar for
// any repeated timestamp, so the series is strictly increasing.
func normalizeBars(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
