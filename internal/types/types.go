package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Progress stage constants, in pipeline order.
const (
	StageQueued       = "queued"
	StageTranscribing = "transcribing"
	StageAnalyzing    = "analyzing"
	StageSaving       = "saving"
	StageCompleted    = "completed"
	StageFailed       = "failed"
)

// Event is one progress update for a running analysis job, streamed to
// websocket subscribers.
type Event struct {
	JobID   string    `json:"job_id"`
	Stage   string    `json:"stage"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
