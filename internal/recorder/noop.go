package recorder

import "TouchSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *model.CycleSummary) error { return nil }
func (n *NoopRecorder) RecordChunk(_ *model.ChunkSummary) error { return nil }
func (n *NoopRecorder) Close() error                            { return nil }
