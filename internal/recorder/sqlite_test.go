package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"TouchSentinel/internal/model"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	now := time.Now()
	if err := r.RecordCycle(&model.CycleSummary{StartedAt: now, FinishedAt: now.Add(time.Minute), Tickers: 2, Checks: 8, Alerts: 1}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordChunk(&model.ChunkSummary{StartedAt: now, FinishedAt: now, Start: 0, End: 50, Eligible: []string{"A.NS", "B.NS"}}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordChunk(&model.ChunkSummary{StartedAt: now, FinishedAt: now, Start: 50, End: 100, Eligible: []string{"C.NS"}}); err != nil {
		t.Fatal(err)
	}

	if n, err := r.CycleCount(); err != nil || n != 1 {
		t.Errorf("expected 1 cycle, got %d (%v)", n, err)
	}
	if n, err := r.EligibleTotal(); err != nil || n != 3 {
		t.Errorf("expected 3 eligible, got %d (%v)", n, err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordCycle(&model.CycleSummary{}); err != nil {
		t.Error(err)
	}
	if err := r.RecordChunk(&model.ChunkSummary{}); err != nil {
		t.Error(err)
	}
}
