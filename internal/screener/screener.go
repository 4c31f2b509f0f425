package screener

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"TouchSentinel/internal/collector"
	"TouchSentinel/internal/metrics"
	"TouchSentinel/internal/model"
	"TouchSentinel/internal/recorder"
	"TouchSentinel/internal/universe"

	"github.com/shopspring/decimal"
)

// Screener filters a slice of the ticker universe by market capitalization
// and appends the eligible tickers to the monitor's universe file.
type Screener struct {
	Fetcher    collector.Fetcher
	Suffix     string
	Threshold  decimal.Decimal
	Delay      time.Duration
	OutputFile string
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics

	Sleep func(time.Duration)
}

// NewScreener creates a Screener; threshold is in the listing currency's units.
func NewScreener(f collector.Fetcher, suffix string, threshold float64, delay time.Duration,
	outputFile string, rec recorder.Recorder, m *metrics.Metrics) *Screener {
	return &Screener{
		Fetcher:    f,
		Suffix:     suffix,
		Threshold:  decimal.NewFromFloat(threshold),
		Delay:      delay,
		OutputFile: outputFile,
		Recorder:   rec,
		Metrics:    m,
		Sleep:      time.Sleep,
	}
}

// Eligible reports whether info carries a market cap strictly above the threshold.
func (s *Screener) Eligible(info model.TickerInfo) bool {
	return info.MarketCap.Valid && info.MarketCap.Decimal.GreaterThan(s.Threshold)
}

// Clamp bounds [start, end) to a universe of length n. ok is false when
// the resulting range is empty.
func Clamp(start, end, n int) (int, int, bool) {
	if end > n {
		end = n
	}
	if start < 0 {
		start = 0
	}
	return start, end, start < end
}

// Run screens tickers[start:end] and appends eligible tickers to the output
// file. Per-ticker provider failures are skipped. Cancelling ctx aborts the
// chunk without appending or recording anything.
func (s *Screener) Run(ctx context.Context, tickers []string, start, end int) (*model.ChunkSummary, error) {
	log.Printf("[INFO] starting chunked screening: %d to %d", start, end)
	summary := &model.ChunkSummary{StartedAt: time.Now(), Start: start, End: end}

	from, to, ok := Clamp(start, end, len(tickers))
	if !ok {
		log.Println("[INFO] no tickers to process in this range")
		return summary, nil
	}
	summary.Start, summary.End = from, to
	log.Printf("[INFO] processing %d tickers (from index %d to %d)", to-from, from, to)

	for _, raw := range tickers[from:to] {
		if err := ctx.Err(); err != nil {
			log.Printf("[WARN] screening interrupted after %d of %d tickers, nothing appended", summary.Processed, to-from)
			return summary, err
		}
		summary.Processed++
		ticker := universe.Normalize(raw)
		if ticker == "" || !strings.HasSuffix(ticker, s.Suffix) {
			s.Metrics.ScreenTotal.WithLabelValues(metrics.ResultSkipped).Inc()
			continue
		}

		info, err := s.Fetcher.FetchInfo(ctx, ticker)
		summary.Queried++
		s.Sleep(s.Delay)
		if ctx.Err() != nil {
			continue
		}
		if err != nil {
			summary.Failures++
			s.Metrics.ScreenTotal.WithLabelValues(metrics.ResultFailed).Inc()
			continue
		}

		if !s.Eligible(info) {
			s.Metrics.ScreenTotal.WithLabelValues(metrics.ResultIneligible).Inc()
			continue
		}
		s.Metrics.ScreenTotal.WithLabelValues(metrics.ResultEligible).Inc()
		summary.Eligible = append(summary.Eligible, ticker)
		log.Printf("[INFO]   [+] found eligible stock: %s", ticker)
	}
	summary.FinishedAt = time.Now()

	log.Printf("[INFO] chunk processing complete, found %d eligible stocks", len(summary.Eligible))
	if err := universe.AppendTickers(s.OutputFile, summary.Eligible); err != nil {
		return summary, fmt.Errorf("append to %s: %w", s.OutputFile, err)
	}
	log.Printf("[INFO] appended %d stocks to %s", len(summary.Eligible), s.OutputFile)

	if err := s.Recorder.RecordChunk(summary); err != nil {
		log.Printf("[ERROR] record chunk: %v", err)
	}
	return summary, nil
}
