package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/meetingcoach/meeting-coach/internal/queue"
	"github.com/meetingcoach/meeting-coach/internal/types"
)

// ProgressHandler streams job progress events over a WebSocket.
type ProgressHandler struct {
	workerPool *queue.WorkerPool
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(workerPool *queue.WorkerPool) *ProgressHandler {
	return &ProgressHandler{workerPool: workerPool}
}

// Handle subscribes the connection to one job's events and forwards them
// until the job reaches a terminal stage or the client disconnects.
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	job, ok := h.workerPool.Job(jobID)
	if !ok {
		c.WriteJSON(fiber.Map{"error": "unknown job", "job_id": jobID})
		return
	}

	events, cancel := h.workerPool.Subscribe(jobID)
	defer cancel()

	// The job may already be done by the time the client connects.
	switch job.Status {
	case types.StatusCompleted:
		c.WriteJSON(types.Event{JobID: jobID, Stage: types.StageCompleted, Message: job.ReportPath})
		return
	case types.StatusFailed:
		c.WriteJSON(types.Event{JobID: jobID, Stage: types.StageFailed, Message: job.Error})
		return
	}

	for event := range events {
		if err := c.WriteJSON(event); err != nil {
			log.Printf("WebSocket write error for job %s: %v", jobID, err)
			return
		}
		if event.Stage == types.StageCompleted || event.Stage == types.StageFailed {
			return
		}
	}
}
