package handlers

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meetingcoach/meeting-coach/internal/analysis"
	"github.com/meetingcoach/meeting-coach/internal/queue"
	"github.com/meetingcoach/meeting-coach/internal/transcribe"
)

// AnalyzeHandler accepts an audio upload plus coaching options and queues
// an analysis job.
type AnalyzeHandler struct {
	workerPool      *queue.WorkerPool
	tempDir         string
	maxSizeMB       int
	defaultLanguage string
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(workerPool *queue.WorkerPool, tempDir string, maxSizeMB int, defaultLanguage string) *AnalyzeHandler {
	return &AnalyzeHandler{
		workerPool:      workerPool,
		tempDir:         tempDir,
		maxSizeMB:       maxSizeMB,
		defaultLanguage: defaultLanguage,
	}
}

// Handle processes the analysis request.
func (h *AnalyzeHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	requestName := c.FormValue("name")
	if requestName == "" {
		requestName = "untitled"
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if _, ok := transcribe.DetectFormat(file.Filename); !ok {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported audio format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	language := c.FormValue("language")
	if language == "" {
		language = h.defaultLanguage
	}
	if !transcribe.SupportedLanguage(language) {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported language %q", language),
			"code":  "ERR_INVALID_LANGUAGE",
		})
	}

	analysisType := c.FormValue("analysis_type")
	if analysisType == "" {
		analysisType = analysis.TypeComprehensive
	}
	if !analysis.ValidType(analysisType) {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown analysis type %q", analysisType),
			"code":  "ERR_INVALID_TYPE",
		})
	}

	scenario := c.FormValue("scenario")
	if scenario == "" {
		scenario = analysis.ScenarioMeeting
	}
	if !analysis.ValidScenario(scenario) {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown scenario %q", scenario),
			"code":  "ERR_INVALID_SCENARIO",
		})
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.tempDir, jobID+filepath.Ext(file.Filename))

	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	job := queue.NewJob(jobID, requestName, tempPath)
	job.Language = language
	job.Role = c.FormValue("role")
	job.AnalysisType = analysisType
	job.Scenario = scenario

	h.workerPool.EnqueueJob(job)

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "File uploaded successfully, analysis started",
	})
}
