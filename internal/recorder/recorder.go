package recorder

import "TouchSentinel/internal/model"

// Recorder persists run summaries for later inspection.
// Individual alerts are not stored.
type Recorder interface {
	RecordCycle(s *model.CycleSummary) error
	RecordChunk(s *model.ChunkSummary) error
	Close() error
}
