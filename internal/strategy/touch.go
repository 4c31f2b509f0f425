package strategy

import (
	"time"

	"TouchSentinel/internal/model"
)

// Touches reports whether the bar's high-low range contains its EMA.
// Both bounds are inclusive; direction and open/close are irrelevant.
func Touches(bar model.IndicatorBar) bool {
	return bar.Low <= bar.EMA && bar.EMA <= bar.High
}

// Detect evaluates the latest indicator bar of a timeframe and returns an
// alert when it touches the EMA. Earlier bars are never consulted, so a
// slow-moving EMA can fire on consecutive scans.
func Detect(ticker string, tf model.Timeframe, bars []model.IndicatorBar) (*model.Alert, bool) {
	if len(bars) == 0 {
		return nil, false
	}
	last := bars[len(bars)-1]
	if !Touches(last) {
		return nil, false
	}
	return &model.Alert{
		Ticker:     ticker,
		Timeframe:  tf.Label,
		Time:       last.Time,
		Low:        last.Low,
		High:       last.High,
		EMA:        last.EMA,
		Close:      last.Close,
		DetectedAt: time.Now(),
	}, true
}
