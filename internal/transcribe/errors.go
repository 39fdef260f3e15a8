package transcribe

import (
	"errors"
	"fmt"
	"time"
)

// ConfigurationError reports an invalid or unsupported option, caught before
// any remote call is made.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Field, e.Value)
}

// UploadError reports a failed staging upload. Nothing was staged, so no
// cleanup is owed.
type UploadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SubmissionError reports a job submission the provider rejected.
type SubmissionError struct {
	JobName string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit job %s: %v", e.JobName, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError reports a job the provider ran to completion but marked
// failed. Reason is the provider's failure reason, verbatim.
type JobFailedError struct {
	JobName string
	Reason  string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobName, e.Reason)
}

// TimeoutError reports that the polling ceiling was exceeded before the job
// reached a terminal state. The remote job is abandoned, not cancelled; the
// payload carries what was known when polling stopped. Cause distinguishes a
// deadline expiry from a caller-initiated cancellation.
type TimeoutError struct {
	JobName    string
	Elapsed    time.Duration
	Polls      int
	LastStatus Status
	Cause      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s did not finish after %s (%d polls, last status %s): %v",
		e.JobName, e.Elapsed.Round(time.Millisecond), e.Polls, e.LastStatus, e.Cause)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ParseError reports a malformed raw result payload.
type ParseError struct {
	JobName string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("job %s result: %s", e.JobName, e.Reason)
}

// CleanupError reports a failed release of a staged object. It is non-fatal:
// callers log it and never let it replace the pipeline's primary error.
type CleanupError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("release s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Retryable reports whether err is a transient pipeline failure worth
// retrying with the same input. Configuration, parse, and provider-failed
// errors indicate an input or data problem and are not retryable.
func Retryable(err error) bool {
	var (
		up      *UploadError
		sub     *SubmissionError
		timeout *TimeoutError
	)
	return errors.As(err, &up) || errors.As(err, &sub) || errors.As(err, &timeout)
}
