package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollerTerminatesOnCompleted(t *testing.T) {
	client := &fakeClient{script: []JobState{
		{Status: StatusInProgress},
		{Status: StatusInProgress},
		{Status: StatusCompleted, Result: twoSpeakerRaw()},
	}}
	p := NewPoller(client, time.Millisecond, time.Second)
	job := &Job{Name: "job-1", Status: StatusSubmitted}

	raw, err := p.Wait(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == nil {
		t.Fatal("expected a raw result on completion")
	}
	if client.fetchCalls != 3 {
		t.Fatalf("expected 3 polls, got %d", client.fetchCalls)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("job status = %s, want COMPLETED", job.Status)
	}
}

func TestPollerTerminatesOnFailed(t *testing.T) {
	client := &fakeClient{script: []JobState{
		{Status: StatusFailed, FailureReason: "The input media file is empty"},
	}}
	p := NewPoller(client, time.Millisecond, time.Second)

	_, err := p.Wait(context.Background(), &Job{Name: "job-1", Status: StatusSubmitted})
	var jf *JobFailedError
	if !errors.As(err, &jf) {
		t.Fatalf("expected JobFailedError, got %v", err)
	}
	if jf.Reason != "The input media file is empty" {
		t.Fatalf("reason not verbatim: %q", jf.Reason)
	}
}

func TestPollerCeilingTerminatesStuckJob(t *testing.T) {
	client := &fakeClient{} // IN_PROGRESS forever
	p := NewPoller(client, 5*time.Millisecond, 25*time.Millisecond)
	job := &Job{Name: "job-1", Status: StatusSubmitted}

	start := time.Now()
	_, err := p.Wait(context.Background(), job)
	elapsed := time.Since(start)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if elapsed < 25*time.Millisecond {
		t.Fatalf("returned before the ceiling: %s", elapsed)
	}
	if elapsed > time.Second {
		t.Fatalf("ceiling did not bound the loop: %s", elapsed)
	}
	if te.LastStatus != StatusInProgress {
		t.Fatalf("last status = %s, want IN_PROGRESS", te.LastStatus)
	}
	if job.Status != StatusTimedOut {
		t.Fatalf("job status = %s, want TIMED_OUT", job.Status)
	}
	if !errors.Is(te.Cause, context.DeadlineExceeded) {
		t.Fatalf("cause = %v, want deadline exceeded", te.Cause)
	}
}

func TestPollerRetriesTransportErrors(t *testing.T) {
	boom := errors.New("connection refused")
	client := &fakeClient{
		errScript: []error{boom, boom},
		script: []JobState{
			{}, {}, // consumed by the error script slots
			{Status: StatusCompleted, Result: twoSpeakerRaw()},
		},
	}
	p := NewPoller(client, time.Millisecond, time.Second)

	raw, err := p.Wait(context.Background(), &Job{Name: "job-1", Status: StatusSubmitted})
	if err != nil {
		t.Fatalf("transport errors must be transient, got %v", err)
	}
	if raw == nil {
		t.Fatal("expected a result after transient errors")
	}
	if client.fetchCalls != 3 {
		t.Fatalf("expected 3 polls, got %d", client.fetchCalls)
	}
}

func TestPollerErrorLoopStillBounded(t *testing.T) {
	boom := errors.New("throttled")
	client := &fakeClient{errScript: []error{
		boom, boom, boom, boom, boom, boom, boom, boom, boom, boom,
		boom, boom, boom, boom, boom, boom, boom, boom, boom, boom,
	}}
	p := NewPoller(client, 5*time.Millisecond, 25*time.Millisecond)

	_, err := p.Wait(context.Background(), &Job{Name: "job-1", Status: StatusSubmitted})
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("a provider error loop must still terminate with TimeoutError, got %v", err)
	}
}

func TestPollerCancellation(t *testing.T) {
	client := &fakeClient{}
	p := NewPoller(client, 5*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(12 * time.Millisecond)
		cancel()
	}()

	_, err := p.Wait(ctx, &Job{Name: "job-1", Status: StatusSubmitted})
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError on cancellation, got %v", err)
	}
	if !errors.Is(te.Cause, context.Canceled) {
		t.Fatalf("cause = %v, want context.Canceled", te.Cause)
	}
}
