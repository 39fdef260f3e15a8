package transcribe

import (
	"context"
	"log"
	"time"
)

// Poller drives JobClient.FetchStatus until the job reaches a terminal state
// or the wall-clock ceiling expires. Transport errors during polling are
// transient: they are logged and retried until the same ceiling.
type Poller struct {
	client   JobClient
	interval time.Duration
	timeout  time.Duration
}

// NewPoller builds a poller with a fixed interval between polls and a hard
// ceiling on total elapsed time.
func NewPoller(client JobClient, interval, timeout time.Duration) *Poller {
	return &Poller{client: client, interval: interval, timeout: timeout}
}

// Wait polls until COMPLETED (returning the raw result), FAILED (returning a
// *JobFailedError), or the ceiling/cancellation (returning a *TimeoutError
// whose Cause tells the two apart). The ceiling is enforced by wall clock,
// never by iteration count, so a throttled provider cannot stretch it.
func (p *Poller) Wait(ctx context.Context, job *Job) (*RawResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	polls := 0
	for {
		state, err := p.client.FetchStatus(ctx, job)
		polls++
		if err != nil {
			if ctx.Err() != nil {
				return nil, p.timedOut(job, start, polls, ctx.Err())
			}
			log.Printf("Poll %d for job %s failed, retrying: %v", polls, job.Name, err)
		} else {
			job.Status = state.Status
			switch state.Status {
			case StatusCompleted:
				return state.Result, nil
			case StatusFailed:
				return nil, &JobFailedError{JobName: job.Name, Reason: state.FailureReason}
			}
		}

		select {
		case <-ctx.Done():
			return nil, p.timedOut(job, start, polls, ctx.Err())
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) timedOut(job *Job, start time.Time, polls int, cause error) error {
	last := job.Status
	job.Status = StatusTimedOut
	return &TimeoutError{
		JobName:    job.Name,
		Elapsed:    time.Since(start),
		Polls:      polls,
		LastStatus: last,
		Cause:      cause,
	}
}
