package transcribe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeStore records staging activity in memory.
type fakeStore struct {
	stageErr   error
	releaseErr error
	staged     []StagedObject
	released   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{released: make(map[string]int)}
}

func (f *fakeStore) Stage(ctx context.Context, src AudioSource) (StagedObject, error) {
	if f.stageErr != nil {
		return StagedObject{}, f.stageErr
	}
	obj := StagedObject{Bucket: "test-bucket", Key: stagingKey(src.Path, src.Format)}
	f.staged = append(f.staged, obj)
	return obj, nil
}

func (f *fakeStore) Release(ctx context.Context, obj StagedObject) error {
	if obj.Key == "" {
		return nil
	}
	f.released[obj.Key]++
	if f.releaseErr != nil {
		return f.releaseErr
	}
	return nil
}

func (f *fakeStore) totalReleases() int {
	n := 0
	for _, c := range f.released {
		n += c
	}
	return n
}

// fakeClient replays a scripted sequence of poll observations. Once the
// script runs out it keeps reporting IN_PROGRESS.
type fakeClient struct {
	script      []JobState
	errScript   []error
	submitErr   error
	submitCalls int
	fetchCalls  int
}

func (f *fakeClient) Submit(ctx context.Context, obj StagedObject, language string) (*Job, error) {
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if !SupportedLanguage(language) {
		return nil, &ConfigurationError{Field: "language", Value: language}
	}
	return &Job{Name: jobNameFor(obj), Language: language, MediaURI: obj.URI(), Status: StatusSubmitted}, nil
}

func (f *fakeClient) FetchStatus(ctx context.Context, job *Job) (*JobState, error) {
	i := f.fetchCalls
	f.fetchCalls++
	if i < len(f.errScript) && f.errScript[i] != nil {
		return nil, f.errScript[i]
	}
	if i < len(f.script) {
		s := f.script[i]
		return &s, nil
	}
	return &JobState{Status: StatusInProgress}, nil
}

func word(content, start, end, speaker string) RawItem {
	return RawItem{
		Type:         itemPronunciation,
		StartTime:    start,
		EndTime:      end,
		SpeakerLabel: speaker,
		Alternatives: []RawAlternative{{Content: content, Confidence: "0.99"}},
	}
}

func punct(content string) RawItem {
	return RawItem{
		Type:         itemPunctuation,
		Alternatives: []RawAlternative{{Content: content, Confidence: "0.0"}},
	}
}

func rawWith(items ...RawItem) *RawResult {
	var raw RawResult
	raw.Status = "COMPLETED"
	raw.Results.Items = items
	return &raw
}

func twoSpeakerRaw() *RawResult {
	return rawWith(
		word("Good", "0.0", "0.4", "spk_0"),
		word("morning", "0.5", "1.0", "spk_0"),
		punct("."),
		word("Hi", "1.2", "1.5", "spk_1"),
		word("there", "1.6", "2.0", "spk_1"),
		punct("."),
	)
}

func wavSource() AudioSource {
	return AudioSource{Path: "standup.wav", Format: FormatWAV, Body: strings.NewReader("audio-bytes")}
}

func TestTranscribeCompletes(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{script: []JobState{
		{Status: StatusInProgress},
		{Status: StatusInProgress},
		{Status: StatusCompleted, Result: twoSpeakerRaw()},
	}}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	transcript, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(transcript.Segments))
	}
	if transcript.Segments[0].Start > transcript.Segments[1].Start {
		t.Fatal("segments out of chronological order")
	}
	if transcript.Segments[0].Speaker != 0 || transcript.Segments[1].Speaker != 1 {
		t.Fatalf("expected speakers 0 and 1, got %d and %d",
			transcript.Segments[0].Speaker, transcript.Segments[1].Speaker)
	}
	if got := store.totalReleases(); got != 1 {
		t.Fatalf("expected exactly one release, got %d", got)
	}
}

func TestTranscribeUploadFailure(t *testing.T) {
	store := newFakeStore()
	store.stageErr = &UploadError{Bucket: "test-bucket", Key: "k", Err: errors.New("connection reset")}
	client := &fakeClient{}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	_, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	var up *UploadError
	if !errors.As(err, &up) {
		t.Fatalf("expected UploadError, got %v", err)
	}
	if client.submitCalls != 0 {
		t.Fatalf("no job should be submitted after a failed upload, got %d submits", client.submitCalls)
	}
	if got := store.totalReleases(); got != 0 {
		t.Fatalf("nothing was staged, expected no releases, got %d", got)
	}
}

func TestTranscribeTimesOut(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{} // never leaves IN_PROGRESS
	p := NewPipeline(store, client, 10*time.Millisecond, 35*time.Millisecond)

	_, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if te.Elapsed < 35*time.Millisecond {
		t.Fatalf("ceiling not honored: elapsed %s", te.Elapsed)
	}
	if te.Polls < 1 {
		t.Fatalf("expected at least one poll, got %d", te.Polls)
	}
	if te.LastStatus != StatusInProgress {
		t.Fatalf("expected last status IN_PROGRESS, got %s", te.LastStatus)
	}
	if got := store.totalReleases(); got != 1 {
		t.Fatalf("expected exactly one release after timeout, got %d", got)
	}
}

func TestTranscribeEmptyResult(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{script: []JobState{
		{Status: StatusCompleted, Result: rawWith()},
	}}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	_, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if got := store.totalReleases(); got != 1 {
		t.Fatalf("expected exactly one release, got %d", got)
	}
}

func TestTranscribeRejectsUnsupportedLanguage(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	_, err := p.Transcribe(context.Background(), wavSource(), "xx-YY")
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if len(store.staged) != 0 || client.submitCalls != 0 {
		t.Fatal("no remote call should happen for an unsupported language")
	}
}

func TestTranscribeJobFailed(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{script: []JobState{
		{Status: StatusInProgress},
		{Status: StatusFailed, FailureReason: "Unsupported media encoding"},
	}}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	_, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	var jf *JobFailedError
	if !errors.As(err, &jf) {
		t.Fatalf("expected JobFailedError, got %v", err)
	}
	if jf.Reason != "Unsupported media encoding" {
		t.Fatalf("provider reason not carried verbatim: %q", jf.Reason)
	}
	if got := store.totalReleases(); got != 1 {
		t.Fatalf("expected exactly one release, got %d", got)
	}
}

func TestTranscribeSubmissionRejected(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{submitErr: &SubmissionError{JobName: "j", Err: errors.New("quota exceeded")}}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	_, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	var se *SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if got := store.totalReleases(); got != 1 {
		t.Fatalf("staged object must be released after a rejected submission, got %d releases", got)
	}
}

func TestTranscribeCleanupFailureDoesNotMask(t *testing.T) {
	store := newFakeStore()
	store.releaseErr = &CleanupError{Bucket: "test-bucket", Key: "k", Err: errors.New("access denied")}
	client := &fakeClient{script: []JobState{
		{Status: StatusCompleted, Result: twoSpeakerRaw()},
	}}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	transcript, err := p.Transcribe(context.Background(), wavSource(), "en-US")
	if err != nil {
		t.Fatalf("cleanup failure must not fail the pipeline: %v", err)
	}
	if transcript == nil || len(transcript.Segments) != 2 {
		t.Fatal("expected the transcript despite the cleanup failure")
	}
}

func TestTranscribeCancellation(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{}
	p := NewPipeline(store, client, 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	_, err := p.Transcribe(ctx, wavSource(), "en-US")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError on cancellation, got %v", err)
	}
	if !errors.Is(te.Cause, context.Canceled) {
		t.Fatalf("expected cancellation cause, got %v", te.Cause)
	}
	if got := store.totalReleases(); got != 1 {
		t.Fatalf("expected exactly one release after cancellation, got %d", got)
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{&UploadError{Err: errors.New("x")}, true},
		{&SubmissionError{Err: errors.New("x")}, true},
		{&TimeoutError{Cause: context.DeadlineExceeded}, true},
		{&ConfigurationError{Field: "language", Value: "xx-YY"}, false},
		{&JobFailedError{Reason: "bad audio"}, false},
		{&ParseError{Reason: "empty"}, false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.retryable {
			t.Errorf("Retryable(%T) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
}

func TestTranscribeDefaultLanguage(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{script: []JobState{
		{Status: StatusCompleted, Result: twoSpeakerRaw()},
	}}
	p := NewPipeline(store, client, time.Millisecond, time.Second)

	transcript, err := p.Transcribe(context.Background(), wavSource(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transcript.Language != DefaultLanguage {
		t.Fatalf("expected default language %s, got %s", DefaultLanguage, transcript.Language)
	}
}

func TestSequentialInvocationsGetDistinctKeys(t *testing.T) {
	store := newFakeStore()
	p := NewPipeline(store, &fakeClient{script: []JobState{{Status: StatusCompleted, Result: twoSpeakerRaw()}}}, time.Millisecond, time.Second)
	if _, err := p.Transcribe(context.Background(), wavSource(), "en-US"); err != nil {
		t.Fatalf("first invocation: %v", err)
	}
	p2 := NewPipeline(store, &fakeClient{script: []JobState{{Status: StatusCompleted, Result: twoSpeakerRaw()}}}, time.Millisecond, time.Second)
	if _, err := p2.Transcribe(context.Background(), wavSource(), "en-US"); err != nil {
		t.Fatalf("second invocation: %v", err)
	}
	if len(store.staged) != 2 {
		t.Fatalf("expected 2 staged objects, got %d", len(store.staged))
	}
	if store.staged[0].Key == store.staged[1].Key {
		t.Fatalf("identical content must still get distinct keys: %s", store.staged[0].Key)
	}
	for key, n := range store.released {
		if n != 1 {
			t.Fatalf("key %s released %d times", key, n)
		}
	}
}
