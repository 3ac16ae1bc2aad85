// Package storage implements the upload Storage collaborator over Amazon S3.
// Clients never stream files through this service: they receive a presigned
// PUT URL and upload directly, and the engine later verifies the object with
// a HEAD request when the upload is confirmed.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// putPresigner is the slice of the S3 presign client we use.
type putPresigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// headObjectAPI is the slice of the S3 client we use for verification.
type headObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store issues presigned upload destinations against one bucket.
type S3Store struct {
	bucket  string
	ttl     time.Duration
	client  headObjectAPI
	presign putPresigner
}

// New builds an S3Store from the ambient AWS configuration (environment,
// shared config, instance role).
func New(ctx context.Context, bucket string, ttl time.Duration) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{
		bucket:  bucket,
		ttl:     ttl,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignUpload returns a time-limited PUT URL for the given object key.
func (s *S3Store) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	ttl := s.ttl
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := s.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, err
	}
	return req.URL, time.Now().UTC().Add(ttl), nil
}

// ObjectExists reports whether the object was actually uploaded. A missing
// key is not an error; anything else (auth, transport) is.
func (s *S3Store) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
