package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meetingcoach/meeting-coach/internal/transcribe"
)

// Writer saves analysis artifacts to the local filesystem under dated
// directories: outputs/2025/08/30/20250830_143022_standup_analysis.md
type Writer struct {
	outputDir string
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// Result records where a report's artifacts were written.
type Result struct {
	AnalysisPath   string
	TranscriptPath string
	MetaPath       string
}

// Write saves the analysis markdown, the rendered transcript, and a metadata
// JSON next to each other. requestName becomes part of the filenames.
func (w *Writer) Write(requestName string, t *transcribe.Transcript, analysis string) (*Result, error) {
	now := time.Now()
	dateDir := filepath.Join(w.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create date directory: %v", err)
	}

	base := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), sanitizeFilename(requestName))
	res := &Result{
		AnalysisPath:   filepath.Join(dateDir, base+"_analysis.md"),
		TranscriptPath: filepath.Join(dateDir, base+"_transcript.txt"),
		MetaPath:       filepath.Join(dateDir, base+"_meta.json"),
	}

	if err := os.WriteFile(res.AnalysisPath, []byte(analysis), 0644); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %v", err)
	}
	if err := os.WriteFile(res.TranscriptPath, []byte(t.Render()), 0644); err != nil {
		return nil, fmt.Errorf("failed to save transcript: %v", err)
	}

	metadata := map[string]interface{}{
		"job_id":           t.JobName,
		"request_name":     requestName,
		"language":         t.Language,
		"duration_seconds": t.Duration().Seconds(),
		"word_count":       t.WordCount(),
		"segments":         t.Segments,
		"created_at":       now,
	}
	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %v", err)
	}
	if err := os.WriteFile(res.MetaPath, metaJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to save metadata: %v", err)
	}

	return res, nil
}

// WriteTo saves the analysis markdown to an exact caller-chosen path,
// creating parent directories as needed. Used by the CLI's --output flag.
func WriteTo(path, analysis string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(analysis), 0644); err != nil {
		return fmt.Errorf("failed to save analysis: %v", err)
	}
	return nil
}

// DefaultOutputName derives "<audio-stem>_analysis.md" from an audio path.
func DefaultOutputName(audioPath string) string {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_analysis.md"
}

// sanitizeFilename strips path separators and other unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	name = replacer.Replace(name)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
