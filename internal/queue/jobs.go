package queue

import (
	"time"

	"github.com/meetingcoach/meeting-coach/internal/types"
)

// Job is one analysis request: a buffered audio file plus the caller's
// coaching options.
type Job struct {
	ID           string
	RequestName  string
	AudioPath    string
	Language     string
	Role         string
	AnalysisType string
	Scenario     string

	Status     string
	Error      string
	SessionID  string
	ReportPath string
	DriveURL   string
	CreatedAt  time.Time
}

// NewJob creates a job in the queued state.
func NewJob(id, requestName, audioPath string) *Job {
	return &Job{
		ID:          id,
		RequestName: requestName,
		AudioPath:   audioPath,
		Status:      types.StatusQueued,
		CreatedAt:   time.Now(),
	}
}
