package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe describes how one analysis granularity is obtained from the provider.
type Timeframe struct {
	Label    string        `yaml:"label"`
	Interval string        `yaml:"interval"` // provider fetch interval, e.g. "1h"
	Lookback string        `yaml:"lookback"` // provider range, e.g. "730d"
	Resample time.Duration `yaml:"resample"` // 0 means native
}

// Resampled reports whether bars must be bucketed after fetching.
func (tf Timeframe) Resampled() bool { return tf.Resample > 0 }

// Alert is emitted when the latest bar of a timeframe touches its EMA.
type Alert struct {
	Ticker     string
	Timeframe  string
	Time       time.Time
	Low        float64
	High       float64
	EMA        float64
	Close      float64
	DetectedAt time.Time
}

// TickerInfo carries the reference data used for screening.
type TickerInfo struct {
	Symbol    string
	MarketCap decimal.NullDecimal // invalid when the provider omits it
}
