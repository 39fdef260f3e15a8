package queue

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetingcoach/meeting-coach/internal/analysis"
	"github.com/meetingcoach/meeting-coach/internal/report"
	"github.com/meetingcoach/meeting-coach/internal/storage"
	"github.com/meetingcoach/meeting-coach/internal/transcribe"
	"github.com/meetingcoach/meeting-coach/internal/types"
)

// WorkerPool runs analysis jobs: transcribe, analyze, write the report,
// persist the session. Progress events fan out to subscribers per job.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	pipeline    *transcribe.Pipeline
	analyzer    analysis.Analyzer
	reports     *report.Writer
	sessions    *storage.SessionDB
	driveClient *storage.DriveClient

	mu   sync.Mutex
	jobs map[string]*Job
	subs map[string][]chan types.Event
}

// NewWorkerPool creates a worker pool. driveClient may be nil.
func NewWorkerPool(
	workerCount int,
	pipeline *transcribe.Pipeline,
	analyzer analysis.Analyzer,
	reports *report.Writer,
	sessions *storage.SessionDB,
	driveClient *storage.DriveClient,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:    make(chan *Job, 100),
		workerCount: workerCount,
		pipeline:    pipeline,
		analyzer:    analyzer,
		reports:     reports,
		sessions:    sessions,
		driveClient: driveClient,
		jobs:        make(map[string]*Job),
		subs:        make(map[string][]chan types.Event),
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// EnqueueJob registers and queues a job.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()

	wp.mu.Lock()
	wp.jobs[job.ID] = job
	wp.mu.Unlock()

	wp.jobQueue <- job
	wp.publish(job.ID, types.StageQueued, "")
	log.Printf("Job %s enqueued (name: %s, language: %s)", job.ID, job.RequestName, job.Language)
}

// Job returns a snapshot of a registered job.
func (wp *WorkerPool) Job(id string) (Job, bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	job, ok := wp.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Subscribe returns a channel of progress events for a job and a cancel
// function the subscriber must call when done.
func (wp *WorkerPool) Subscribe(jobID string) (<-chan types.Event, func()) {
	ch := make(chan types.Event, 16)
	wp.mu.Lock()
	wp.subs[jobID] = append(wp.subs[jobID], ch)
	wp.mu.Unlock()

	cancel := func() {
		wp.mu.Lock()
		defer wp.mu.Unlock()
		subs := wp.subs[jobID]
		for i, c := range subs {
			if c == ch {
				wp.subs[jobID] = append(subs[:i], subs[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, cancel
}

// publish sends an event to every subscriber of the job. Slow subscribers
// miss events rather than blocking the worker.
func (wp *WorkerPool) publish(jobID, stage, message string) {
	event := types.Event{JobID: jobID, Stage: stage, Message: message, At: time.Now()}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for _, ch := range wp.subs[jobID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// worker processes jobs from the queue.
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		// Panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, job.ID, r, string(debug.Stack()))
					wp.fail(job, fmt.Errorf("worker panic: %v", r))
					wp.cleanupTempFile(job.AudioPath)
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob handles the complete analysis pipeline for one job.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)
	job.Status = types.StatusProcessing
	ctx := context.Background()

	defer wp.cleanupTempFile(job.AudioPath)

	// Step 1: Transcribe via the staged-job pipeline
	wp.publish(job.ID, types.StageTranscribing, "")
	src, err := transcribe.NewAudioSource(job.AudioPath)
	if err != nil {
		wp.fail(job, err)
		return
	}
	transcript, err := wp.pipeline.Transcribe(ctx, src, job.Language)
	if err != nil {
		log.Printf("Worker %d: Transcription failed for job %s: %v", workerID, job.ID, err)
		wp.fail(job, err)
		return
	}

	// Step 2: Analyze
	wp.publish(job.ID, types.StageAnalyzing, "")
	opts := analysis.Options{
		Role:         job.Role,
		AnalysisType: job.AnalysisType,
		Scenario:     job.Scenario,
		Mode:         analysis.ModeAnalysis,
	}
	commentary, err := wp.analyzer.Analyze(ctx, transcript, opts)
	if err != nil {
		log.Printf("Worker %d: Analysis failed for job %s: %v", workerID, job.ID, err)
		wp.fail(job, err)
		return
	}

	// Step 3: Write report artifacts
	wp.publish(job.ID, types.StageSaving, "")
	res, err := wp.reports.Write(job.RequestName, transcript, commentary)
	if err != nil {
		log.Printf("Worker %d: Report save failed for job %s: %v", workerID, job.ID, err)
		wp.fail(job, err)
		return
	}
	job.ReportPath = res.AnalysisPath

	// Step 4: Upload to Google Drive (with retry, best effort)
	if wp.driveClient != nil {
		for attempt := 1; attempt <= 3; attempt++ {
			url, err := wp.driveClient.UploadReport(job.RequestName+"_analysis.md", res.AnalysisPath)
			if err == nil {
				job.DriveURL = url
				break
			}
			log.Printf("Worker %d: Drive upload attempt %d/3 failed: %v", workerID, attempt, err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
	}

	// Step 5: Persist the session
	if wp.sessions != nil {
		sessionID := uuid.New().String()
		err := wp.sessions.Save(storage.Session{
			ID:            sessionID,
			AudioFilename: job.RequestName,
			UserRole:      job.Role,
			AnalysisType:  job.AnalysisType,
			Scenario:      job.Scenario,
			Language:      transcript.Language,
			ReportPath:    res.AnalysisPath,
		})
		if err != nil {
			log.Printf("Worker %d: Session save failed: %v", workerID, err)
		} else {
			job.SessionID = sessionID
		}
	}

	job.Status = types.StatusCompleted
	wp.publish(job.ID, types.StageCompleted, res.AnalysisPath)
	log.Printf("Worker %d: Job %s completed (report: %s)", workerID, job.ID, res.AnalysisPath)
}

func (wp *WorkerPool) fail(job *Job, err error) {
	job.Status = types.StatusFailed
	job.Error = err.Error()
	wp.publish(job.ID, types.StageFailed, err.Error())
}

// cleanupTempFile removes a buffered upload.
func (wp *WorkerPool) cleanupTempFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup temp file %s: %v", filePath, err)
	}
}
