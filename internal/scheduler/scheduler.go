package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"TouchSentinel/internal/collector"
	"TouchSentinel/internal/metrics"
	"TouchSentinel/internal/model"
	"TouchSentinel/internal/notifier"
	"TouchSentinel/internal/recorder"
	"TouchSentinel/internal/strategy"
	"TouchSentinel/internal/universe"

	"github.com/robfig/cron/v3"
)

// Scheduler alternates between scanning the ticker universe and sleeping.
type Scheduler struct {
	Collector  *collector.Collector
	TickerFile string
	Timeframes []model.Timeframe
	Schedule   cron.Schedule
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics

	// Progress, when set, is called after every check with the running count.
	Progress func(done, total int)
	Now      func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(col *collector.Collector, tickerFile string, tfs []model.Timeframe, sched cron.Schedule,
	n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Collector:  col,
		TickerFile: tickerFile,
		Timeframes: tfs,
		Schedule:   sched,
		Notifier:   n,
		Recorder:   rec,
		Metrics:    m,
		Now:        time.Now,
	}
}

// Run scans, then sleeps until the schedule's next activation, forever.
// It returns nil when ctx is cancelled during a sleep, and an error when
// the universe cannot be loaded or is empty.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[INFO] monitor started: %d timeframes, universe %s", len(s.Timeframes), s.TickerFile)
	for {
		summary, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}

		next := s.Schedule.Next(summary.FinishedAt)
		log.Printf("[INFO] sleeping until %s (%s)", next.Format("2006-01-02 15:04:05"), next.Sub(s.Now()).Round(time.Second))
		if !sleepUntil(ctx, next.Sub(s.Now())) {
			log.Println("[INFO] monitor stopped")
			return nil
		}
	}
}

// RunOnce performs a single scan cycle over every ticker and timeframe.
func (s *Scheduler) RunOnce(ctx context.Context) (*model.CycleSummary, error) {
	tickers, err := universe.LoadTickers(s.TickerFile)
	if err != nil {
		log.Printf("[ERROR] ticker file %s: %v. Please run the screener first.", s.TickerFile, err)
		return nil, fmt.Errorf("load tickers: %w", err)
	}
	if len(tickers) == 0 {
		log.Println("[INFO] no tickers to process, exiting")
		return nil, universe.ErrNoTickers
	}
	log.Printf("[INFO] loaded %d tickers from %s", len(tickers), s.TickerFile)

	summary := &model.CycleSummary{StartedAt: s.Now(), Tickers: len(tickers)}
	total := len(tickers) * len(s.Timeframes)

	for _, ticker := range tickers {
		for _, tf := range s.Timeframes {
			result := s.check(ctx, ticker, tf)
			summary.Checks++
			switch result {
			case metrics.ResultAlert:
				summary.Alerts++
			case metrics.ResultSkipped:
				summary.Skipped++
			case metrics.ResultFailed:
				summary.Failures++
			}

			s.Metrics.ObserveCheck(tf.Label, result, summary.Checks, total)
			if s.Progress != nil {
				s.Progress(summary.Checks, total)
			}
		}
	}

	summary.FinishedAt = s.Now()
	s.Metrics.ObserveCycle(summary.Duration(), summary.FinishedAt)
	log.Println("[INFO] " + notifier.FormatCycleSummary(summary))

	if err := s.Recorder.RecordCycle(summary); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
	return summary, nil
}

// check runs one detection attempt. Provider errors and short series are
// outcomes, not failures of the cycle.
func (s *Scheduler) check(ctx context.Context, ticker string, tf model.Timeframe) string {
	bars, err := s.Collector.Prepare(ctx, ticker, tf)
	if err != nil {
		return metrics.ResultFailed
	}
	if len(bars) == 0 {
		return metrics.ResultSkipped
	}

	alert, fired := strategy.Detect(ticker, tf, bars)
	if !fired {
		return metrics.ResultClear
	}
	if err := s.Notifier.Notify(ctx, alert); err != nil {
		log.Printf("[WARN] deliver alert %s %s: %v", ticker, tf.Label, err)
	}
	return metrics.ResultAlert
}

// sleepUntil blocks for d or until ctx is done; it reports whether the full wait elapsed.
func sleepUntil(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
