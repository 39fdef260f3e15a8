package transcribe

import (
	"context"
	"log"
	"time"
)

// Pipeline composes staging, submission, polling, and normalization into one
// call. It is the only component aware of the full sequence and the only one
// responsible for releasing the staged object.
type Pipeline struct {
	store  StagingStore
	client JobClient
	poller *Poller
}

// NewPipeline wires a pipeline from its parts. interval and timeout configure
// the polling loop.
func NewPipeline(store StagingStore, client JobClient, interval, timeout time.Duration) *Pipeline {
	return &Pipeline{
		store:  store,
		client: client,
		poller: NewPoller(client, interval, timeout),
	}
}

// Transcribe runs the full pipeline: stage, submit, poll, normalize. Once
// staging has succeeded the staged object is released exactly once on every
// exit path; a release failure is logged and never replaces the primary
// error. Each failure comes back as its own inspectable kind — see errors.go
// and Retryable.
func (p *Pipeline) Transcribe(ctx context.Context, src AudioSource, language string) (*Transcript, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if !SupportedLanguage(language) {
		return nil, &ConfigurationError{Field: "language", Value: language}
	}

	obj, err := p.store.Stage(ctx, src)
	if err != nil {
		return nil, err
	}
	// Release must run even when ctx was cancelled mid-pipeline.
	defer func() {
		if rerr := p.store.Release(context.WithoutCancel(ctx), obj); rerr != nil {
			log.Printf("WARNING: failed to release staged audio: %v", rerr)
		}
	}()

	job, err := p.client.Submit(ctx, obj, language)
	if err != nil {
		return nil, err
	}
	log.Printf("Job %s submitted for %s (%s)", job.Name, src.Path, language)

	raw, err := p.poller.Wait(ctx, job)
	if err != nil {
		return nil, err
	}

	transcript, err := Normalize(raw, language, job.Name)
	if err != nil {
		return nil, err
	}
	log.Printf("Job %s completed: %d segments, %d words", job.Name, len(transcript.Segments), transcript.WordCount())
	return transcript, nil
}
