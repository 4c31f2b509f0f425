package calculator

import (
	"math"
	"testing"
	"time"

	"TouchSentinel/internal/model"
)

func TestCalculateEMA_SeedAndRecursion(t *testing.T) {
	prices := make([]float64, 260)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/7) + float64(i%5)
	}
	const period = 200

	ema := CalculateEMA(prices, period)
	if len(ema) != len(prices)-period+1 {
		t.Fatalf("expected %d values, got %d", len(prices)-period+1, len(ema))
	}

	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	if math.Abs(ema[0]-sum/period) > 1e-9 {
		t.Errorf("seed: expected %.10f, got %.10f", sum/period, ema[0])
	}

	k := 2.0 / float64(period+1)
	for i := 1; i < len(ema); i++ {
		want := ema[i-1] + k*(prices[period-1+i]-ema[i-1])
		if math.Abs(ema[i]-want) > 1e-9 {
			t.Fatalf("value %d: expected %.10f, got %.10f", i, want, ema[i])
		}
	}
}

func TestCalculateEMA_ShortInput(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
	}{
		{"empty", nil, 3},
		{"one short", []float64{1, 2}, 3},
		{"zero period", []float64{1, 2, 3}, 0},
		{"negative period", []float64{1, 2, 3}, -2},
	}
	for _, tt := range tests {
		if got := CalculateEMA(tt.prices, tt.period); len(got) != 0 {
			t.Errorf("%s: expected no values, got %v", tt.name, got)
		}
	}
}

func TestCalculateEMA_ExactPeriod(t *testing.T) {
	ema := CalculateEMA([]float64{2, 4, 6}, 3)
	if len(ema) != 1 || ema[0] != 4 {
		t.Errorf("expected [4], got %v", ema)
	}
}

func TestAttachEMA_DropsWarmup(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, 5)
	for i := range bars {
		c := float64(10 + i)
		bars[i] = model.OHLCV{Time: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}

	got := AttachEMA(bars, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 attached bars, got %d", len(got))
	}
	if !got[0].Time.Equal(bars[2].Time) {
		t.Errorf("first attached bar should be the third input bar, got %v", got[0].Time)
	}
	if got[0].EMA != 11 {
		t.Errorf("seed: expected 11, got %v", got[0].EMA)
	}
	// k = 0.5: 11 + 0.5*(13-11) = 12, 12 + 0.5*(14-12) = 13
	if got[1].EMA != 12 || got[2].EMA != 13 {
		t.Errorf("expected [11 12 13], got [%v %v %v]", got[0].EMA, got[1].EMA, got[2].EMA)
	}

	if AttachEMA(bars[:2], 3) != nil {
		t.Error("expected nil for series shorter than period")
	}
}

func TestCalculateSMA(t *testing.T) {
	sma, err := CalculateSMA([]float64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if sma != 3.5 {
		t.Errorf("expected 3.5, got %v", sma)
	}
	if _, err := CalculateSMA([]float64{1}, 2); err == nil {
		t.Error("expected error for short input")
	}
}
