package model

import "time"

// CycleSummary describes one completed scan cycle.
type CycleSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Tickers    int
	Checks     int
	Skipped    int // empty or too-short series
	Failures   int // provider or decode errors
	Alerts     int
}

// Duration returns the wall time the cycle took.
func (c CycleSummary) Duration() time.Duration { return c.FinishedAt.Sub(c.StartedAt) }

// ChunkSummary describes one screening invocation over an index range.
type ChunkSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Start      int
	End        int
	Processed  int
	Queried    int
	Failures   int
	Eligible   []string
}
