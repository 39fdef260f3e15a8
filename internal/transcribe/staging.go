package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// StagingStore uploads audio to remote storage for the provider to read and
// deletes it once the pipeline is done with it.
type StagingStore interface {
	Stage(ctx context.Context, src AudioSource) (StagedObject, error)
	Release(ctx context.Context, obj StagedObject) error
}

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stages audio in an S3 bucket under keys unique per invocation.
type S3Store struct {
	api    s3API
	bucket string
}

// NewS3Store creates a staging store backed by the given S3 client and bucket.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return newS3Store(client, bucket)
}

func newS3Store(api s3API, bucket string) *S3Store {
	return &S3Store{api: api, bucket: bucket}
}

// Stage uploads the audio under a fresh key. On failure it returns an
// *UploadError and no object exists remotely, so nothing needs releasing.
func (s *S3Store) Stage(ctx context.Context, src AudioSource) (StagedObject, error) {
	key := stagingKey(src.Path, src.Format)

	body := src.Body
	if body == nil {
		f, err := os.Open(src.Path)
		if err != nil {
			return StagedObject{}, &UploadError{Bucket: s.bucket, Key: key, Err: err}
		}
		defer f.Close()
		body = f
	}

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentTypeByFormat[src.Format]),
	})
	if err != nil {
		return StagedObject{}, &UploadError{Bucket: s.bucket, Key: key, Err: err}
	}

	return StagedObject{Bucket: s.bucket, Key: key}, nil
}

// Release deletes the staged object. S3 deletes are idempotent, so releasing
// an already-deleted object succeeds; releasing a zero object is a no-op.
// Failures come back as a *CleanupError for the caller to log.
func (s *S3Store) Release(ctx context.Context, obj StagedObject) error {
	if obj.Key == "" {
		return nil
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return &CleanupError{Bucket: obj.Bucket, Key: obj.Key, Err: err}
	}
	return nil
}

// stagingKey builds a key unique across concurrent invocations, even for
// identical content: UTC timestamp plus a random component.
func stagingKey(path string, format MediaFormat) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = "." + string(format)
	}
	return fmt.Sprintf("uploads/%s-%s%s",
		time.Now().UTC().Format("20060102-150405"), uuid.NewString(), ext)
}
