package calculator

import (
	"time"

	"TouchSentinel/internal/model"
)

// Anchor fixes where resampling buckets start: midnight 1970-01-01 in
// Location, shifted by Offset. Edges are identical across runs.
type Anchor struct {
	Location *time.Location
	Offset   time.Duration
}

// Origin returns the reference instant all bucket edges are measured from.
func (a Anchor) Origin() time.Time {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(1970, 1, 1, 0, 0, 0, 0, loc).Add(a.Offset)
}

// BucketStart returns the start of the half-open bucket [start, start+width) containing t.
func (a Anchor) BucketStart(t time.Time, width time.Duration) time.Time {
	origin := a.Origin()
	elapsed := t.Sub(origin)
	n := elapsed / width
	if elapsed%width < 0 {
		n-- // floor for instants before the origin
	}
	return origin.Add(n * width).In(t.Location())
}

// Resample aggregates bars into fixed-width buckets.
// Open is the first open, high the max, low the min, close the last close
// and volume the sum. Buckets without bars are dropped; each output bar
// is stamped with its bucket start. A non-positive width returns bars as-is.
func Resample(bars []model.OHLCV, width time.Duration, anchor Anchor) []model.OHLCV {
	if width <= 0 || len(bars) == 0 {
		return bars
	}

	var out []model.OHLCV
	var cur model.OHLCV
	var bucketStarted bool

	for _, b := range bars {
		start := anchor.BucketStart(b.Time, width)

		if !bucketStarted || !start.Equal(cur.Time) {
			if bucketStarted {
				out = append(out, cur)
			}
			cur = model.OHLCV{Time: start, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			bucketStarted = true
			continue
		}

		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if bucketStarted {
		out = append(out, cur)
	}
	return out
}
