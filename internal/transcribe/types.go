package transcribe

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Job status constants. SUBMITTED and IN_PROGRESS are transient; the rest are terminal.
type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusTimedOut   Status = "TIMED_OUT"
)

// DefaultLanguage is used when the caller does not pick a language.
const DefaultLanguage = "en-US"

// supportedLanguages is the closed set of language codes the provider accepts.
// Codes outside this set are rejected before any network call is made.
var supportedLanguages = map[string]bool{
	"en-US": true,
	"en-GB": true,
	"en-AU": true,
	"es-US": true,
	"es-ES": true,
	"fr-FR": true,
	"fr-CA": true,
	"de-DE": true,
	"it-IT": true,
	"pt-BR": true,
	"ja-JP": true,
	"ko-KR": true,
	"zh-CN": true,
	"hi-IN": true,
}

// SupportedLanguage reports whether code is in the supported set.
func SupportedLanguage(code string) bool {
	return supportedLanguages[code]
}

// SupportedLanguages returns the supported language codes (unordered).
func SupportedLanguages() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}
	return codes
}

// MediaFormat is an audio container/codec the provider accepts.
type MediaFormat string

const (
	FormatMP3  MediaFormat = "mp3"
	FormatMP4  MediaFormat = "mp4"
	FormatWAV  MediaFormat = "wav"
	FormatFLAC MediaFormat = "flac"
	FormatOGG  MediaFormat = "ogg"
	FormatAMR  MediaFormat = "amr"
	FormatWebM MediaFormat = "webm"
	FormatM4A  MediaFormat = "m4a"
)

var formatByExt = map[string]MediaFormat{
	".mp3":  FormatMP3,
	".mp4":  FormatMP4,
	".wav":  FormatWAV,
	".flac": FormatFLAC,
	".ogg":  FormatOGG,
	".amr":  FormatAMR,
	".webm": FormatWebM,
	".m4a":  FormatM4A,
}

var contentTypeByFormat = map[MediaFormat]string{
	FormatMP3:  "audio/mpeg",
	FormatMP4:  "audio/mp4",
	FormatWAV:  "audio/wav",
	FormatFLAC: "audio/flac",
	FormatOGG:  "audio/ogg",
	FormatAMR:  "audio/amr",
	FormatWebM: "audio/webm",
	FormatM4A:  "audio/mp4",
}

// DetectFormat maps a filename extension to a supported media format.
func DetectFormat(filename string) (MediaFormat, bool) {
	f, ok := formatByExt[strings.ToLower(filepath.Ext(filename))]
	return f, ok
}

// AudioSource is a local recording handed to the pipeline. The pipeline never
// mutates it. Body, when set, is read instead of opening Path (used by tests
// and by callers that already hold the bytes in memory).
type AudioSource struct {
	Path   string
	Format MediaFormat
	Body   io.Reader
}

// NewAudioSource builds an AudioSource from a local file path, detecting the
// media format from the extension.
func NewAudioSource(path string) (AudioSource, error) {
	format, ok := DetectFormat(path)
	if !ok {
		return AudioSource{}, &ConfigurationError{Field: "format", Value: filepath.Ext(path)}
	}
	return AudioSource{Path: path, Format: format}, nil
}

// StagedObject is the remote copy of an AudioSource, owned exclusively by the
// pipeline invocation that created it. It must be released exactly once.
type StagedObject struct {
	Bucket string
	Key    string
}

// URI returns the provider-facing reference for the staged object.
func (o StagedObject) URI() string {
	return "s3://" + o.Bucket + "/" + o.Key
}

// Job is a remote transcription job. Status is only ever updated from
// provider reads, never by local logic.
type Job struct {
	Name     string
	Language string
	MediaURI string
	Status   Status
}

// Segment is one speaker turn: consecutive items from the same speaker.
type Segment struct {
	Speaker int     `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Transcript is the pipeline's terminal output: speaker turns ordered by
// start time, with speaker ids forming a dense range from 0.
type Transcript struct {
	JobName  string    `json:"job_id"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Render writes the transcript one line per turn, "spk_N: text", in
// chronological order.
func (t *Transcript) Render() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		fmt.Fprintf(&b, "spk_%d: %s\n", seg.Speaker, seg.Text)
	}
	return b.String()
}

// Duration reports the end time of the last segment.
func (t *Transcript) Duration() time.Duration {
	if len(t.Segments) == 0 {
		return 0
	}
	return time.Duration(t.Segments[len(t.Segments)-1].End * float64(time.Second))
}

// WordCount counts words across all segments.
func (t *Transcript) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		n += len(strings.Fields(seg.Text))
	}
	return n
}
