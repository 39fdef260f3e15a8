package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meetingcoach/meeting-coach/internal/transcribe"
)

// Config is the application configuration. It is built once in main and
// passed down; components never read process environment themselves.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	AWS struct {
		Region string `yaml:"region"`
		Bucket string `yaml:"bucket"`
	} `yaml:"aws"`

	Transcribe struct {
		Language            string `yaml:"language"`
		MaxSpeakers         int    `yaml:"max_speakers"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		PollTimeoutMinutes  int    `yaml:"poll_timeout_minutes"`
	} `yaml:"transcribe"`

	Analysis struct {
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"analysis"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

// Load reads the YAML config at path (missing file is fine, defaults apply),
// then applies environment overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Transcribe.Language = transcribe.DefaultLanguage
	cfg.Transcribe.MaxSpeakers = 10
	cfg.Transcribe.PollIntervalSeconds = 5
	cfg.Transcribe.PollTimeoutMinutes = 30
	cfg.Analysis.Model = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	cfg.Analysis.MaxTokens = 4096
	cfg.Workers.Count = 2
	cfg.Storage.TempDir = "temp"
	cfg.Storage.OutputDir = "results"
	cfg.Storage.Database = "data/sessions.db"
	cfg.Cleanup.IntervalMinutes = 30
	cfg.Cleanup.MaxAgeHours = 24
	cfg.Limits.MaxFileSizeMB = 500
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("MEETING_TRANSCRIBE_S3_BUCKET"); v != "" {
		cfg.AWS.Bucket = v
	}
	if v := os.Getenv("MEETING_COACH_LANGUAGE"); v != "" {
		cfg.Transcribe.Language = v
	}
	if v := os.Getenv("MEETING_COACH_MODEL"); v != "" {
		cfg.Analysis.Model = v
	}
	if v := os.Getenv("MEETING_COACH_OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("MEETING_COACH_POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transcribe.PollIntervalSeconds = n
		}
	}
	if v := os.Getenv("MEETING_COACH_POLL_TIMEOUT_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Transcribe.PollTimeoutMinutes = n
		}
	}
}

func (c *Config) validate() error {
	if !transcribe.SupportedLanguage(c.Transcribe.Language) {
		return fmt.Errorf("unsupported transcription language %q", c.Transcribe.Language)
	}
	if c.Transcribe.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", c.Transcribe.PollIntervalSeconds)
	}
	if c.Transcribe.PollTimeoutMinutes <= 0 {
		return fmt.Errorf("poll timeout must be positive, got %d", c.Transcribe.PollTimeoutMinutes)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers.Count)
	}
	return nil
}

// PollInterval is the wait between job status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Transcribe.PollIntervalSeconds) * time.Second
}

// PollTimeout is the ceiling on total polling time per job.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Transcribe.PollTimeoutMinutes) * time.Minute
}

// CleanupInterval is how often the temp sweeper runs.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Cleanup.IntervalMinutes) * time.Minute
}

// CleanupMaxAge is how long buffered uploads may linger before removal.
func (c *Config) CleanupMaxAge() time.Duration {
	return time.Duration(c.Cleanup.MaxAgeHours) * time.Hour
}

// RequireBucket fails when no staging bucket is configured; the pipeline
// cannot run without one.
func (c *Config) RequireBucket() error {
	if c.AWS.Bucket == "" {
		return fmt.Errorf("no staging bucket configured (set aws.bucket or MEETING_TRANSCRIBE_S3_BUCKET)")
	}
	return nil
}
