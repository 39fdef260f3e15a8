package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	transcribeservice "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/meetingcoach/meeting-coach/internal/analysis"
	"github.com/meetingcoach/meeting-coach/internal/config"
	"github.com/meetingcoach/meeting-coach/internal/report"
	"github.com/meetingcoach/meeting-coach/internal/storage"
	"github.com/meetingcoach/meeting-coach/internal/transcribe"
)

// CLI holds the command line options.
type CLI struct {
	Audio    string `arg:"" type:"existingfile" help:"Path to the audio recording to analyze."`
	Role     string `help:"Your role in the conversation (participant, report, manager, candidate, interviewer)."`
	Type     string `name:"type" default:"comprehensive" help:"Analysis type: comprehensive, quick, or manager_1on1."`
	Scenario string `default:"meeting" help:"Conversation scenario: meeting or interview."`
	Language string `help:"Transcription language code (default from config)."`
	Output   string `short:"o" help:"Write the analysis to this exact path instead of the dated results tree."`
	Config   string `default:"config/config.yaml" help:"Path to the YAML config file."`
	Chat     bool   `help:"Start an interactive follow-up chat after the analysis."`
	Quiet    bool   `short:"q" help:"Only print the report path."`
}

func main() {
	godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Description("Meeting coach: transcribe a recording with speaker labels and get communication coaching from Claude."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run(&cli))
}

func run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Language != "" {
		cfg.Transcribe.Language = cli.Language
	}
	if !transcribe.SupportedLanguage(cfg.Transcribe.Language) {
		return fmt.Errorf("unsupported language %q", cfg.Transcribe.Language)
	}
	if !analysis.ValidType(cli.Type) {
		return fmt.Errorf("unknown analysis type %q", cli.Type)
	}
	if !analysis.ValidScenario(cli.Scenario) {
		return fmt.Errorf("unknown scenario %q", cli.Scenario)
	}
	if err := cfg.RequireBucket(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var awsOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return fmt.Errorf("load AWS config: %v", err)
	}

	store := transcribe.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket)
	jobClient := transcribe.NewTranscribeClient(transcribeservice.NewFromConfig(awsCfg), cfg.Transcribe.MaxSpeakers)
	pipeline := transcribe.NewPipeline(store, jobClient, cfg.PollInterval(), cfg.PollTimeout())

	analyzer, err := analysis.NewClaudeAnalyzer(ctx, cfg.Analysis.Model, cfg.Analysis.MaxTokens)
	if err != nil {
		return err
	}

	src, err := transcribe.NewAudioSource(cli.Audio)
	if err != nil {
		return err
	}

	if !cli.Quiet {
		fmt.Printf("Transcribing %s (%s)...\n", cli.Audio, cfg.Transcribe.Language)
	}
	transcript, err := pipeline.Transcribe(ctx, src, cfg.Transcribe.Language)
	if err != nil {
		return err
	}
	if !cli.Quiet {
		fmt.Printf("Transcript ready: %d speaker turns, %d words\n",
			len(transcript.Segments), transcript.WordCount())
		fmt.Println("Analyzing...")
	}

	opts := analysis.Options{
		Role:         cli.Role,
		AnalysisType: cli.Type,
		Scenario:     cli.Scenario,
		Mode:         analysis.ModeAnalysis,
	}
	commentary, err := analyzer.Analyze(ctx, transcript, opts)
	if err != nil {
		return err
	}

	reportPath, err := saveReport(cli, cfg, transcript, commentary)
	if err != nil {
		return err
	}

	if cli.Quiet {
		fmt.Println(reportPath)
	} else {
		fmt.Println()
		fmt.Println(commentary)
		fmt.Printf("\nReport saved to %s\n", reportPath)
	}

	saveSession(cli, cfg, transcript, reportPath)

	if cli.Chat {
		return chatLoop(ctx, analyzer, transcript, opts, commentary)
	}
	return nil
}

// saveReport writes either to the exact --output path or into the dated
// results tree.
func saveReport(cli *CLI, cfg *config.Config, t *transcribe.Transcript, commentary string) (string, error) {
	if cli.Output != "" {
		if err := report.WriteTo(cli.Output, commentary); err != nil {
			return "", err
		}
		return cli.Output, nil
	}
	name := strings.TrimSuffix(report.DefaultOutputName(cli.Audio), "_analysis.md")
	res, err := report.NewWriter(cfg.Storage.OutputDir).Write(name, t, commentary)
	if err != nil {
		return "", err
	}
	return res.AnalysisPath, nil
}

// saveSession records the run so it shows up in the server's session list.
// Failure is not fatal for a CLI run.
func saveSession(cli *CLI, cfg *config.Config, t *transcribe.Transcript, reportPath string) {
	db, err := storage.NewSessionDB(cfg.Storage.Database)
	if err != nil {
		log.Printf("WARNING: session database unavailable: %v", err)
		return
	}
	defer db.Close()

	err = db.Save(storage.Session{
		ID:            uuid.New().String(),
		AudioFilename: cli.Audio,
		UserRole:      cli.Role,
		AnalysisType:  cli.Type,
		Scenario:      cli.Scenario,
		Language:      t.Language,
		ReportPath:    reportPath,
	})
	if err != nil {
		log.Printf("WARNING: failed to save session: %v", err)
	}
}

// chatLoop runs an interactive follow-up conversation about the analysis.
func chatLoop(ctx context.Context, analyzer analysis.Analyzer, t *transcribe.Transcript, opts analysis.Options, initial string) error {
	fmt.Println("\nFollow-up chat. Ask about the conversation, or type 'exit' to quit.")
	opts.Mode = analysis.ModeChat

	var history []analysis.Turn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := analyzer.FollowUp(ctx, t, opts, initial, history, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println()
		fmt.Println(answer)
		fmt.Println()
		history = append(history, analysis.Turn{Question: question, Answer: answer})
	}
}
