package emit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

// PutObjectAPI is the part of *s3.Client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink publishes the artifact to an S3 object, e.g. for deployments that
// fetch the manifest at startup.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	sink := emit.NewS3Sink(s3.NewFromConfig(cfg), "my-bucket", "routes/manifest.json")
type S3Sink struct {
	client PutObjectAPI
	bucket string
	key    string

	// last is the digest of the last published content.
	last string
}

// NewS3Sink creates a sink writing to bucket/key.
func NewS3Sink(client PutObjectAPI, bucket, key string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, key: key}
}

// Write implements Sink. Content identical to the last upload is not sent
// again.
func (s *S3Sink) Write(ctx context.Context, a Artifact) (bool, error) {
	sum := sha256.Sum256(a.Content)
	digest := hex.EncodeToString(sum[:])
	if digest == s.last {
		return false, nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(a.Content),
		ContentType: aws.String(contentType(a)),
		Metadata: map[string]string{
			"routec-mode":   string(a.Mode),
			"routec-sha256": digest,
		},
	})
	if err != nil {
		return false, routecerrors.New("E131").
			WithDetail("s3://" + s.bucket + "/" + s.key).
			Wrap(err)
	}
	s.last = digest
	return true, nil
}

func contentType(a Artifact) string {
	switch {
	case a.Mode == ModeStatic:
		return "text/x-go; charset=utf-8"
	case bytes.HasPrefix(bytes.TrimSpace(a.Content), []byte("{")):
		return "application/json"
	default:
		return "application/yaml"
	}
}
