package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// JobClient submits transcription jobs and reads their current state.
// FetchStatus is a single provider read; it never sleeps or retries — that
// policy belongs to the Poller.
type JobClient interface {
	Submit(ctx context.Context, obj StagedObject, language string) (*Job, error)
	FetchStatus(ctx context.Context, job *Job) (*JobState, error)
}

// JobState is one observation of provider-side job state. Result is set only
// on COMPLETED; FailureReason only on FAILED.
type JobState struct {
	Status        Status
	Result        *RawResult
	FailureReason string
}

// transcribeAPI is the slice of the provider client the JobClient uses.
type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, in *awstranscribe.StartTranscriptionJobInput, opts ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *awstranscribe.GetTranscriptionJobInput, opts ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error)
}

// TranscribeClient drives AWS Transcribe jobs. Diarization is always
// requested; the normalizer degrades gracefully when the provider could not
// separate speakers.
type TranscribeClient struct {
	api         transcribeAPI
	httpClient  *http.Client
	maxSpeakers int32
}

// NewTranscribeClient wraps the AWS Transcribe client. maxSpeakers bounds the
// provider's diarization search; values below 2 fall back to 2.
func NewTranscribeClient(client *awstranscribe.Client, maxSpeakers int) *TranscribeClient {
	return newTranscribeClient(client, maxSpeakers)
}

func newTranscribeClient(api transcribeAPI, maxSpeakers int) *TranscribeClient {
	if maxSpeakers < 2 {
		maxSpeakers = 2
	}
	return &TranscribeClient{
		api:         api,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxSpeakers: int32(maxSpeakers),
	}
}

// Submit starts a transcription job for a staged object. The language code is
// validated against the supported set before the provider is contacted.
func (c *TranscribeClient) Submit(ctx context.Context, obj StagedObject, language string) (*Job, error) {
	if !SupportedLanguage(language) {
		return nil, &ConfigurationError{Field: "language", Value: language}
	}
	format, ok := DetectFormat(obj.Key)
	if !ok {
		return nil, &ConfigurationError{Field: "format", Value: path.Ext(obj.Key)}
	}

	// The job name reuses the staged key's timestamp+random component so the
	// two identities collide or not together.
	name := jobNameFor(obj)

	_, err := c.api.StartTranscriptionJob(ctx, &awstranscribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
		LanguageCode:         transcribetypes.LanguageCode(language),
		MediaFormat:          transcribetypes.MediaFormat(format),
		Media: &transcribetypes.Media{
			MediaFileUri: aws.String(obj.URI()),
		},
		Settings: &transcribetypes.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(c.maxSpeakers),
		},
	})
	if err != nil {
		return nil, &SubmissionError{JobName: name, Err: err}
	}

	return &Job{
		Name:     name,
		Language: language,
		MediaURI: obj.URI(),
		Status:   StatusSubmitted,
	}, nil
}

// FetchStatus reads the job's current provider-side state. On COMPLETED it
// also downloads the result document the provider wrote. Transport errors are
// returned as plain errors for the poller to treat as transient.
func (c *TranscribeClient) FetchStatus(ctx context.Context, job *Job) (*JobState, error) {
	out, err := c.api.GetTranscriptionJob(ctx, &awstranscribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(job.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", job.Name, err)
	}
	tj := out.TranscriptionJob

	switch tj.TranscriptionJobStatus {
	case transcribetypes.TranscriptionJobStatusCompleted:
		if tj.Transcript == nil || tj.Transcript.TranscriptFileUri == nil {
			return nil, fmt.Errorf("job %s completed without a transcript URI", job.Name)
		}
		raw, err := c.fetchResult(ctx, *tj.Transcript.TranscriptFileUri)
		if err != nil {
			return nil, err
		}
		return &JobState{Status: StatusCompleted, Result: raw}, nil

	case transcribetypes.TranscriptionJobStatusFailed:
		reason := "unknown reason"
		if tj.FailureReason != nil {
			reason = *tj.FailureReason
		}
		return &JobState{Status: StatusFailed, FailureReason: reason}, nil

	case transcribetypes.TranscriptionJobStatusInProgress:
		return &JobState{Status: StatusInProgress}, nil

	default: // QUEUED
		return &JobState{Status: StatusSubmitted}, nil
	}
}

// fetchResult downloads the finished result document. The URI is a
// provider-signed HTTPS link, so a plain GET is the whole protocol.
func (c *TranscribeClient) fetchResult(ctx context.Context, uri string) (*RawResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build result request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch result: http %d", resp.StatusCode)
	}

	var raw RawResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &raw, nil
}

func jobNameFor(obj StagedObject) string {
	base := path.Base(obj.Key)
	return strings.TrimSuffix(base, path.Ext(base))
}
