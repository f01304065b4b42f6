package artifact

import (
	"bytes"
	"context"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Object is one upload.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Body        []byte
	Metadata    map[string]string
}

// Store uploads objects to remote storage.
type Store interface {
	Put(ctx context.Context, obj Object) error
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads objects with s3.PutObject.
type S3Store struct {
	Client S3API
}

// NewS3Store creates an S3Store backed by an S3 client built from cfg.
func NewS3Store(cfg aws.Config) *S3Store {
	return &S3Store{Client: s3.NewFromConfig(cfg)}
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, obj Object) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(obj.Body),
		ContentType:   aws.String(obj.ContentType),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		Metadata:      obj.Metadata,
	})
	if err != nil {
		wrapped := errors.WrapKind(err, errors.ErrPersistence, "upload s3://%s/%s", obj.Bucket, obj.Key)

		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			wrapped = errors.WithDetailf(wrapped, "code: %s", apiErr.ErrorCode())
			if apiErr.ErrorCode() == "NoSuchBucket" {
				wrapped = errors.WithHintf(wrapped, "bucket %q does not exist; check S3_BUCKET_BETA / S3_BUCKET_PROD", obj.Bucket)
			}
		}

		return wrapped
	}

	return nil
}
