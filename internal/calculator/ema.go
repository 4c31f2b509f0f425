package calculator

import "TouchSentinel/internal/model"

// Multiplier returns the EMA smoothing factor 2/(period+1).
func Multiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

// CalculateEMA computes the trailing EMA of prices.
//
// The result is aligned to the tail of prices: result[i] belongs to
// prices[i+period-1]. The first value is the SMA of the first period
// prices. Returns nil when there are fewer than period prices.
func CalculateEMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	seed, err := CalculateSMA(prices[:period], period)
	if err != nil {
		return nil
	}

	k := Multiplier(period)
	ema := make([]float64, 0, len(prices)-period+1)
	ema = append(ema, seed)
	prev := seed
	for _, p := range prices[period:] {
		prev += k * (p - prev)
		ema = append(ema, prev)
	}
	return ema
}

// AttachEMA pairs each bar with its EMA value, dropping the warm-up
// prefix that has no value. Returns nil when the series is shorter
// than period.
func AttachEMA(bars []model.OHLCV, period int) []model.IndicatorBar {
	ema := CalculateEMA(model.Series{Bars: bars}.Closes(), period)
	if len(ema) == 0 {
		return nil
	}

	offset := len(bars) - len(ema)
	out := make([]model.IndicatorBar, len(ema))
	for i, v := range ema {
		out[i] = model.IndicatorBar{OHLCV: bars[offset+i], EMA: v}
	}
	return out
}
