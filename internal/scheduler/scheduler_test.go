package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"TouchSentinel/internal/calculator"
	"TouchSentinel/internal/collector"
	"TouchSentinel/internal/metrics"
	"TouchSentinel/internal/model"
	"TouchSentinel/internal/recorder"
	"TouchSentinel/internal/universe"
)

type fixedDelay time.Duration

func (d fixedDelay) Next(t time.Time) time.Time { return t.Add(time.Duration(d)) }

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []*model.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, a *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

type cycleRecorder struct {
	recorder.NoopRecorder
	cycles chan *model.CycleSummary
}

func (c *cycleRecorder) RecordCycle(s *model.CycleSummary) error {
	select {
	case c.cycles <- s:
	default:
	}
	return nil
}

var (
	daily  = model.Timeframe{Label: "Daily", Interval: "1d", Lookback: "5y"}
	hourly = model.Timeframe{Label: "1-Hour", Interval: "1h", Lookback: "730d"}
)

// touchingBars ends with a bar whose range contains EMA(3) of the closes.
func touchingBars() []model.OHLCV {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 100, 100, 100}
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: t0.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

// farBars ends with a bar far above its EMA(3).
func farBars() []model.OHLCV {
	bars := touchingBars()
	last := &bars[len(bars)-1]
	last.Open, last.High, last.Low, last.Close = 150, 155, 145, 150
	return bars
}

func writeTickers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eligible_stocks.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestScheduler(path string, f *collector.MockFetcher, n *recordingNotifier) *Scheduler {
	col := collector.NewCollector(f, 3, calculator.Anchor{})
	return NewScheduler(col, path, []model.Timeframe{daily, hourly}, fixedDelay(time.Hour),
		n, recorder.NewNoopRecorder(), metrics.NewMetrics())
}

func TestRunOnce_FailureDoesNotStopCycle(t *testing.T) {
	path := writeTickers(t, "BAD.NS\nGOOD.NS\n\nFLAT.NS\n")
	f := &collector.MockFetcher{
		Series: map[string][]model.OHLCV{
			collector.SeriesKey("GOOD.NS", "1d"): touchingBars(),
			collector.SeriesKey("GOOD.NS", "1h"): farBars(),
			collector.SeriesKey("FLAT.NS", "1d"): touchingBars()[:2], // too short for EMA(3)
		},
		Errors: map[string]error{
			collector.SeriesKey("BAD.NS", "1d"): errors.New("connection reset"),
			collector.SeriesKey("BAD.NS", "1h"): errors.New("connection reset"),
		},
	}
	n := &recordingNotifier{}
	s := newTestScheduler(path, f, n)

	var progress []int
	s.Progress = func(done, total int) {
		if total != 6 {
			t.Errorf("expected total 6, got %d", total)
		}
		progress = append(progress, done)
	}

	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	wantCalls := []string{"BAD.NS|1d", "BAD.NS|1h", "GOOD.NS|1d", "GOOD.NS|1h", "FLAT.NS|1d", "FLAT.NS|1h"}
	if len(f.Calls) != len(wantCalls) {
		t.Fatalf("expected %d fetches, got %v", len(wantCalls), f.Calls)
	}
	for i, c := range wantCalls {
		if f.Calls[i] != c {
			t.Errorf("fetch %d: expected %s, got %s", i, c, f.Calls[i])
		}
	}

	if summary.Checks != 6 || summary.Failures != 2 || summary.Alerts != 1 || summary.Skipped != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(n.alerts) != 1 || n.alerts[0].Ticker != "GOOD.NS" || n.alerts[0].Timeframe != "Daily" {
		t.Fatalf("unexpected alerts: %+v", n.alerts)
	}
	if n.alerts[0].EMA != 100 {
		t.Errorf("expected EMA 100, got %v", n.alerts[0].EMA)
	}
	if len(progress) != 6 || progress[5] != 6 {
		t.Errorf("unexpected progress sequence %v", progress)
	}
}

func TestRunOnce_EveryCheckFails(t *testing.T) {
	path := writeTickers(t, "A.NS\nB.NS\n")
	f := &collector.MockFetcher{Errors: map[string]error{
		"A.NS": errors.New("timeout"),
		"B.NS": errors.New("timeout"),
	}}
	summary, err := newTestScheduler(path, f, &recordingNotifier{}).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("cycle must complete, got %v", err)
	}
	if summary.Failures != 4 {
		t.Errorf("expected 4 failures, got %d", summary.Failures)
	}
}

func TestRun_EmptyUniverseExits(t *testing.T) {
	path := writeTickers(t, "\n\n")
	err := newTestScheduler(path, &collector.MockFetcher{}, &recordingNotifier{}).Run(context.Background())
	if !errors.Is(err, universe.ErrNoTickers) {
		t.Errorf("expected ErrNoTickers, got %v", err)
	}
}

func TestRun_MissingUniverseExits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	err := newTestScheduler(path, &collector.MockFetcher{}, &recordingNotifier{}).Run(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestRun_CancelDuringSleep(t *testing.T) {
	path := writeTickers(t, "GOOD.NS\n")
	f := &collector.MockFetcher{Series: map[string][]model.OHLCV{
		collector.SeriesKey("GOOD.NS", "1d"): touchingBars(),
	}}
	s := newTestScheduler(path, f, &recordingNotifier{})
	rec := &cycleRecorder{cycles: make(chan *model.CycleSummary, 1)}
	s.Recorder = rec

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-rec.cycles:
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle did not finish")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_RescansAfterSleep(t *testing.T) {
	path := writeTickers(t, "GOOD.NS\n")
	f := &collector.MockFetcher{Series: map[string][]model.OHLCV{
		collector.SeriesKey("GOOD.NS", "1d"): touchingBars(),
	}}
	n := &recordingNotifier{}
	s := newTestScheduler(path, f, n)
	s.Schedule = fixedDelay(10 * time.Millisecond)
	rec := &cycleRecorder{cycles: make(chan *model.CycleSummary, 4)}
	s.Recorder = rec

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-rec.cycles:
		case <-time.After(5 * time.Second):
			t.Fatalf("cycle %d did not finish", i+1)
		}
	}
	cancel()
	<-done

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.alerts) < 2 {
		t.Errorf("expected the same touch to re-alert each cycle, got %d alerts", len(n.alerts))
	}
}
