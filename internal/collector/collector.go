package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TouchSentinel/internal/calculator"
	"TouchSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string][]model.OHLCV // keyed by SeriesKey(symbol, interval)
	Info   map[string]model.TickerInfo
	Errors map[string]error // keyed by symbol or SeriesKey
	Calls  []string
}

// SeriesKey builds the MockFetcher lookup key for a (symbol, interval) pair.
func SeriesKey(symbol, interval string) string { return symbol + "|" + interval }

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, symbol, interval, _ string) (model.Series, error) {
	key := SeriesKey(symbol, interval)
	m.Calls = append(m.Calls, key)
	if err := m.Errors[key]; err != nil {
		return model.Series{}, err
	}
	if err := m.Errors[symbol]; err != nil {
		return model.Series{}, err
	}
	bars, ok := m.Series[key]
	if !ok {
		return model.Series{Symbol: symbol, Interval: interval}, ErrNoData
	}
	return model.Series{Symbol: symbol, Interval: interval, Bars: bars}, nil
}

func (m *MockFetcher) FetchInfo(_ context.Context, symbol string) (model.TickerInfo, error) {
	m.Calls = append(m.Calls, symbol)
	if err := m.Errors[symbol]; err != nil {
		return model.TickerInfo{}, err
	}
	info, ok := m.Info[symbol]
	if !ok {
		return model.TickerInfo{Symbol: symbol}, nil
	}
	return info, nil
}

// GenerateBars builds count bars spaced by step with closes drifting around basePrice.
func GenerateBars(start time.Time, step time.Duration, basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector turns raw provider data into indicator-attached bars.
type Collector struct {
	Fetcher   Fetcher
	EMAPeriod int
	Anchor    calculator.Anchor
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, emaPeriod int, anchor calculator.Anchor) *Collector {
	return &Collector{Fetcher: fetcher, EMAPeriod: emaPeriod, Anchor: anchor}
}

// Prepare fetches symbol for tf, resamples when required, attaches the
// EMA and drops the warm-up bars. An empty result with a nil error means
// there is nothing to evaluate (no data or too little history).
func (c *Collector) Prepare(ctx context.Context, symbol string, tf model.Timeframe) ([]model.IndicatorBar, error) {
	series, err := c.Fetcher.FetchSeries(ctx, symbol, tf.Interval, tf.Lookback)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, tf.Label, err)
	}

	bars := series.Bars
	if tf.Resampled() {
		bars = calculator.Resample(bars, tf.Resample, c.Anchor)
	}
	return calculator.AttachEMA(bars, c.EMAPeriod), nil
}
