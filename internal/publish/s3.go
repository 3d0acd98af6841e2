package publish

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// S3Target uploads to a single S3 bucket using the default AWS credential
// chain (environment, shared config, EC2/ECS role), the same chain the v1
// client the teacher uses resolves implicitly.
type S3Target struct {
	client *s3.Client
	bucket string
}

// NewS3Target loads the default AWS config for region and returns a Target
// bound to bucket.
func NewS3Target(ctx context.Context, region, bucket string) (*S3Target, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, "", err)
	}
	return &S3Target{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (t *S3Target) Exists(ctx context.Context, key string) (bool, error) {
	_, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, updateerr.Wrap(updateerr.Io, key, err)
}

func (t *S3Target) Upload(ctx context.Context, key string, data []byte) error {
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return updateerr.Wrap(updateerr.Io, key, err)
	}
	return nil
}
