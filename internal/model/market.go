package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a time-ordered run of bars for one (symbol, interval) pair.
// Timestamps are strictly increasing; gaps are allowed.
type Series struct {
	Symbol   string
	Interval string
	Bars     []OHLCV
}

// Closes extracts the closing prices in bar order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// IndicatorBar is a bar with its trailing EMA attached.
type IndicatorBar struct {
	OHLCV
	EMA float64
}
