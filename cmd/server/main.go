package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	transcribeservice "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/meetingcoach/meeting-coach/internal/analysis"
	"github.com/meetingcoach/meeting-coach/internal/cleanup"
	"github.com/meetingcoach/meeting-coach/internal/config"
	"github.com/meetingcoach/meeting-coach/internal/handlers"
	"github.com/meetingcoach/meeting-coach/internal/queue"
	"github.com/meetingcoach/meeting-coach/internal/report"
	"github.com/meetingcoach/meeting-coach/internal/storage"
	"github.com/meetingcoach/meeting-coach/internal/transcribe"
)

func main() {
	// Load .env if present, then configuration
	godotenv.Load()

	configPath := os.Getenv("MEETING_COACH_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireBucket(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Ensure directories exist
	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")
	ctx := context.Background()

	// AWS clients for staging and transcription
	var awsOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	store := transcribe.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket)
	jobClient := transcribe.NewTranscribeClient(transcribeservice.NewFromConfig(awsCfg), cfg.Transcribe.MaxSpeakers)
	pipeline := transcribe.NewPipeline(store, jobClient, cfg.PollInterval(), cfg.PollTimeout())

	// Claude analyzer over Bedrock
	analyzer, err := analysis.NewClaudeAnalyzer(ctx, cfg.Analysis.Model, cfg.Analysis.MaxTokens)
	if err != nil {
		log.Fatalf("Failed to initialize analyzer: %v", err)
	}

	reports := report.NewWriter(cfg.Storage.OutputDir)

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Reports will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Session database
	sessions, err := storage.NewSessionDB(cfg.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize session database: %v", err)
	}
	defer sessions.Close()

	// Worker pool
	workerPool := queue.NewWorkerPool(
		cfg.Workers.Count,
		pipeline,
		analyzer,
		reports,
		sessions,
		driveClient,
	)
	workerPool.Start()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.CleanupInterval(),
		cfg.CleanupMaxAge(),
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(workerPool, cfg.Storage.TempDir, cfg.Limits.MaxFileSizeMB, cfg.Transcribe.Language)
	progressHandler := handlers.NewProgressHandler(workerPool)
	sessionsHandler := handlers.NewSessionsHandler(sessions)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/analyze", analyzeHandler.Handle)

	app.Get("/jobs/:id", func(c *fiber.Ctx) error {
		job, ok := workerPool.Job(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
		}
		return c.JSON(fiber.Map{
			"job_id":      job.ID,
			"status":      job.Status,
			"error":       job.Error,
			"session_id":  job.SessionID,
			"report_path": job.ReportPath,
			"drive_url":   job.DriveURL,
		})
	})

	// WebSocket progress stream
	app.Get("/ws/jobs/:id", websocket.New(progressHandler.Handle))

	app.Get("/sessions", sessionsHandler.List)
	app.Get("/sessions/:id/report", sessionsHandler.Report)
	app.Delete("/sessions/:id", sessionsHandler.Delete)

	app.Get("/languages", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"languages": transcribe.SupportedLanguages()})
	})

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST   /analyze              - Upload audio for analysis")
	log.Println("   GET    /jobs/:id             - Job status")
	log.Println("   GET    /ws/jobs/:id          - WebSocket progress stream")
	log.Println("   GET    /sessions             - List saved sessions")
	log.Println("   GET    /sessions/:id/report  - Fetch session report")
	log.Println("   DELETE /sessions/:id         - Delete a session")
	log.Println("   GET    /languages            - Supported languages")
	log.Println("   GET    /logs                 - View server logs")
	log.Println("   GET    /health               - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
